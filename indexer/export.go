package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetEvent struct {
	Sequence   int64  `parquet:"name=sequence, type=INT64"`
	Type       string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Config     string `parquet:"name=config, type=BYTE_ARRAY, convertedtype=UTF8"`
	NFT        string `parquet:"name=nft, type=BYTE_ARRAY, convertedtype=UTF8"`
	Account    string `parquet:"name=account, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attributes string `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
	Digest     string `parquet:"name=digest, type=BYTE_ARRAY, convertedtype=UTF8"`
	IndexedAt  int64  `parquet:"name=indexed_at, type=INT64"`
}

// ExportParquet writes every event matching q to a snappy-compressed parquet
// file at path and returns the number of rows. q.After and q.Limit are
// ignored.
func (ix *Indexer) ExportParquet(ctx context.Context, path string, q Query) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("indexer: create parquet: %w", err)
	}
	defer file.Close()
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(file), new(parquetEvent), 1)
	if err != nil {
		return 0, fmt.Errorf("indexer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	rows := 0
	q.After, q.Limit = 0, maxLimit
	for {
		page, err := ix.History(ctx, q)
		if err != nil {
			return rows, err
		}
		for _, rec := range page {
			row := &parquetEvent{
				Sequence:   int64(rec.Sequence),
				Type:       rec.Type,
				Config:     rec.Config,
				NFT:        rec.NFT,
				Account:    rec.Account,
				Attributes: rec.Attributes,
				Digest:     rec.Digest,
				IndexedAt:  rec.CreatedAt.Unix(),
			}
			if err := pw.Write(row); err != nil {
				return rows, fmt.Errorf("indexer: write parquet row: %w", err)
			}
			rows++
		}
		if len(page) < maxLimit {
			break
		}
		q.After = page[len(page)-1].Sequence
	}
	if err := pw.WriteStop(); err != nil {
		return rows, fmt.Errorf("indexer: finish parquet: %w", err)
	}
	return rows, nil
}
