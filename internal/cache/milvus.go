package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"AIAvatar/internal/config"
	"AIAvatar/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	milvusFieldID        = "id"
	milvusFieldSeq       = "seq"
	milvusFieldEmbedding = "embedding"
)

// MilvusIndex is a VectorIndex backed by a Milvus collection, for deployments
// where the answer set has outgrown a linear in-memory scan. It stores a
// monotonic sequence number next to each vector so the recency tie-break
// survives restarts.
type MilvusIndex struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dim        int
}

// NewMilvusIndex connects to Milvus and ensures the collection exists with a
// COSINE HNSW index over the embedding field.
func NewMilvusIndex(ctx context.Context, cfg *config.MilvusConfig, log *logger.Logger) (*MilvusIndex, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	m := &MilvusIndex{
		log:        log,
		client:     c,
		collection: cfg.Collection,
		dim:        cfg.Dim,
	}
	if err := m.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MilvusIndex) ensureCollection(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(m.collection).
			WithDescription("Embeddings of answered questions for the instant-answer cache").
			WithField(entity.NewField().WithName(milvusFieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(milvusFieldSeq).WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(milvusFieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dim)))

		if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 96)
		if err != nil {
			return fmt.Errorf("failed to build index spec: %w", err)
		}
		if err := m.client.CreateIndex(ctx, m.collection, milvusFieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", m.collection, err)
	}
	return nil
}

// Insert adds one embedding, flushing so the entry is durable and visible to
// the next search. Writes only happen once per novel question, so the flush
// cost is acceptable.
func (m *MilvusIndex) Insert(ctx context.Context, id string, vector []float32) error {
	if len(vector) != m.dim {
		return fmt.Errorf("vector dimension %d does not match collection dimension %d", len(vector), m.dim)
	}

	idCol := entity.NewColumnVarChar(milvusFieldID, []string{id})
	seqCol := entity.NewColumnInt64(milvusFieldSeq, []int64{time.Now().UnixNano()})
	vecCol := entity.NewColumnFloatVector(milvusFieldEmbedding, m.dim, [][]float32{vector})

	if _, err := m.client.Insert(ctx, m.collection, "", idCol, seqCol, vecCol); err != nil {
		return fmt.Errorf("failed to insert into Milvus: %w", err)
	}
	if err := m.client.Flush(ctx, m.collection, false); err != nil {
		return fmt.Errorf("failed to flush Milvus collection: %w", err)
	}
	return nil
}

// Search runs a COSINE similarity search and orders equal scores newest
// first by sequence number.
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	results, err := m.client.Search(
		ctx, m.collection, nil, "",
		[]string{milvusFieldID, milvusFieldSeq},
		[]entity.Vector{entity.FloatVector(vector)},
		milvusFieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	type scored struct {
		Match
		seq int64
	}
	var all []scored
	for _, res := range results {
		var idData []string
		var seqData []int64
		for _, field := range res.Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				if col.Name() == milvusFieldID {
					idData = col.Data()
				}
			case *entity.ColumnInt64:
				if col.Name() == milvusFieldSeq {
					seqData = col.Data()
				}
			}
		}
		for i := 0; i < res.ResultCount && i < len(idData); i++ {
			s := scored{Match: Match{ID: idData[i], Similarity: float64(res.Scores[i])}}
			if i < len(seqData) {
				s.seq = seqData[i]
			}
			all = append(all, s)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Similarity != all[j].Similarity {
			return all[i].Similarity > all[j].Similarity
		}
		return all[i].seq > all[j].seq
	})
	if len(all) > topK {
		all = all[:topK]
	}

	matches := make([]Match, len(all))
	for i, s := range all {
		matches[i] = s.Match
	}
	return matches, nil
}

// Len reports the collection row count.
func (m *MilvusIndex) Len(ctx context.Context) (int, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// Reset drops and recreates the collection ahead of a rebuild from the store.
func (m *MilvusIndex) Reset(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := m.client.DropCollection(ctx, m.collection); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	return m.ensureCollection(ctx)
}

// Close releases the Milvus connection.
func (m *MilvusIndex) Close() {
	if m.client != nil {
		m.client.Close()
	}
}

var _ VectorIndex = (*MilvusIndex)(nil)
