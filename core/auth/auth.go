// Package auth provides the credentials accepted by the ledger: callers that
// proved control of an account key, and program authorities that act for
// derived vault addresses which have no key at all.
package auth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"nftstaking/crypto"
)

var (
	ErrInvalidSignature = errors.New("auth: invalid signature")
	ErrEmptyProgram     = errors.New("auth: program name required")
	ErrProgramClaimed   = errors.New("auth: program name already claimed")
)

// Signer is a credential that may authorise movements out of Address. The
// interface is sealed; only Caller and ProgramAuthority satisfy it.
type Signer interface {
	Address() [20]byte
	sealed()
}

// Caller is an account whose signature over an operation digest has been
// verified.
type Caller struct {
	addr  [20]byte
	nonce uint64
	bound bool
}

func (c Caller) Address() [20]byte { return c.addr }

// Nonce returns the nonce the caller signed over. ok is false for callers
// authenticated against a raw digest.
func (c Caller) Nonce() (nonce uint64, ok bool) { return c.nonce, c.bound }

func (Caller) sealed() {}

func (c Caller) String() string {
	return crypto.FromArray(crypto.AccountPrefix, c.addr).String()
}

// Authenticate recovers the signer of digest and returns its Caller
// credential.
func Authenticate(digest, sig []byte) (Caller, error) {
	if len(digest) != 32 || len(sig) != 65 {
		return Caller{}, ErrInvalidSignature
	}
	addr, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return Caller{addr: addr}, nil
}

// AuthenticateOperation verifies sig over OperationDigest(operation, nonce,
// fields...) and binds nonce to the returned credential.
func AuthenticateOperation(operation string, nonce uint64, sig []byte, fields ...[]byte) (Caller, error) {
	caller, err := Authenticate(OperationDigest(operation, nonce, fields...), sig)
	if err != nil {
		return Caller{}, err
	}
	caller.nonce = nonce
	caller.bound = true
	return caller, nil
}

// SignOperation is the signing counterpart of AuthenticateOperation.
func SignOperation(key *crypto.PrivateKey, operation string, nonce uint64, fields ...[]byte) ([]byte, error) {
	return SignDigest(key, OperationDigest(operation, nonce, fields...))
}

// SignDigest signs digest with key.
func SignDigest(key *crypto.PrivateKey, digest []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.New("auth: nil key")
	}
	return key.Sign(digest)
}

// OperationDigest binds an operation name and its encoded arguments to a
// nonce, producing the 32-byte message a caller signs. Every field is length
// prefixed.
func OperationDigest(operation string, nonce uint64, fields ...[]byte) []byte {
	parts := make([][]byte, 0, 2*len(fields)+3)
	parts = append(parts, uint64Bytes(uint64(len(operation))), []byte(operation), uint64Bytes(nonce))
	for _, field := range fields {
		parts = append(parts, uint64Bytes(uint64(len(field))), field)
	}
	return ethcrypto.Keccak256(parts...)
}

// Program is the root capability of a ledger component. Whoever holds it can
// mint authorities for the addresses derived from its name.
type Program struct {
	name string
}

var (
	programsMu sync.Mutex
	programs   = make(map[string]struct{})
)

// NewProgram claims name and returns its capability. A name can be claimed
// once per process, so the component that claims it first is the only one
// able to sign for its derived addresses.
func NewProgram(name string) (*Program, error) {
	if name == "" {
		return nil, ErrEmptyProgram
	}
	programsMu.Lock()
	defer programsMu.Unlock()
	if _, taken := programs[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrProgramClaimed, name)
	}
	programs[name] = struct{}{}
	return &Program{name: name}, nil
}

// Name returns the program identifier.
func (p *Program) Name() string { return p.name }

// DeriveAddress computes the keyless address for seeds under this program.
func (p *Program) DeriveAddress(seeds ...[]byte) [20]byte {
	return DeriveProgramAddress(p.name, seeds...)
}

// Authority mints the signer for the address derived from seeds. A Program
// not obtained from NewProgram yields the zero authority, which controls
// nothing.
func (p *Program) Authority(seeds ...[]byte) ProgramAuthority {
	if p == nil || p.name == "" {
		return ProgramAuthority{}
	}
	return ProgramAuthority{program: p.name, addr: p.DeriveAddress(seeds...)}
}

// DeriveProgramAddress is the public half of Program.DeriveAddress; anyone can
// compute the address, only the program can sign for it.
func DeriveProgramAddress(program string, seeds ...[]byte) [20]byte {
	parts := make([][]byte, 0, len(seeds)+1)
	parts = append(parts, []byte(program))
	parts = append(parts, seeds...)
	return crypto.DeriveAddress(parts...)
}

// ProgramAuthority signs for a keyless derived address.
type ProgramAuthority struct {
	program string
	addr    [20]byte
}

func (a ProgramAuthority) Address() [20]byte { return a.addr }

func (ProgramAuthority) sealed() {}

// Program names the component that minted the authority.
func (a ProgramAuthority) Program() string { return a.program }

func uint64Bytes(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}
