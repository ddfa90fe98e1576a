package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/econsult/internal/db"
)

// vectorScoreField is the KNN distance RediSearch attaches to each hit.
// Parsed into SearchEntry.Score and stripped from the field map.
const vectorScoreField = "__vector_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.FieldPath == "" {
		return nil, fmt.Errorf("vector field path is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB", q.K, q.FieldPath)
	params := []string{"BLOB", vectorToBytes(q.Vector)}
	if q.NumCandidates > 0 {
		knnPart += " EF_RUNTIME $EF"
		params = append(params, "EF", strconv.Itoa(q.NumCandidates))
	}
	knnPart += "]"
	queryStr := "*=>" + knnPart

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		// An explicit RETURN clause suppresses the score field, so it is
		// requested alongside the caller's fields and stripped after parsing.
		fields := q.ReturnFields
		if !slices.Contains(fields, vectorScoreField) {
			fields = append(slices.Clone(fields), vectorScoreField)
		}
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	args = append(args, "PARAMS", strconv.Itoa(len(params)))
	args = append(args, params...)
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// parseKNNResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...]
func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields[vectorScoreField]; ok {
			if s, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = max(0, 1.0-s) // cosine distance -> similarity, clamped to [0,1]
			}
			delete(entry.Fields, vectorScoreField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
