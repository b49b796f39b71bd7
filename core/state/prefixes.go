package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	tokenPrefix   = []byte("token:")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
	balancePrefix = []byte("balance:")

	collectionPrefix       = []byte("collection:")
	collectionMemberPrefix = []byte("collection-member:")
	collectionNFTPrefix    = []byte("collection-nft:")

	stakingConfigPrefix   = []byte("nftstaking/config/")
	stakingConfigListKey  = ethcrypto.Keccak256([]byte("nftstaking/config-list"))
	stakingPositionPrefix = []byte("nftstaking/position/")
	stakingIndexPrefix    = []byte("nftstaking/positions/")
	stakingAuditPrefix    = []byte("nftstaking/audit/")
)

// hashedKey concatenates prefix and parts and hashes the result.
func hashedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}
