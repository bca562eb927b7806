package main

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/salesinsight_backend/config"
	"bitbucket.org/mmdatafocus/salesinsight_backend/models"
)

// batch holds one upload's transient state: parsed rows, the suggested
// mapping, and (after confirmation) the immutable aggregate set. Nothing
// here survives the process or the next upload.
//
// The fields set at creation are never written again; the two
// confirmation fields are guarded by the batch's own mutex because
// confirm and report requests can race on the same batch.
type batch struct {
	ID        string
	CreatedAt time.Time
	Headers   []string
	Rows      []models.Row
	Suggested models.ColumnMapping

	mu         sync.RWMutex
	mapping    models.ColumnMapping
	aggregates *models.AggregateSet
}

func newBatch(headers []string, rows []models.Row, suggested models.ColumnMapping) *batch {
	return &batch{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Headers:   headers,
		Rows:      rows,
		Suggested: suggested,
	}
}

// state returns the confirmed mapping and aggregate set, nil until a
// mapping has been confirmed. The set itself is immutable once built.
func (b *batch) state() (models.ColumnMapping, *models.AggregateSet) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mapping, b.aggregates
}

// batchStore keeps the current upload batch in memory. A new upload
// replaces everything; a superseded batch ID turns into a 404.
type batchStore struct {
	mu      sync.RWMutex
	batches map[string]*batch
}

func newBatchStore() *batchStore {
	return &batchStore{batches: map[string]*batch{}}
}

func (s *batchStore) replace(b *batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = map[string]*batch{b.ID: b}
}

func (s *batchStore) get(id string) (*batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	return b, ok
}

func (s *batchStore) confirm(id string, mapping models.ColumnMapping, set *models.AggregateSet) bool {
	s.mu.RLock()
	b, ok := s.batches[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	b.mu.Lock()
	b.mapping = mapping
	b.aggregates = set
	b.mu.Unlock()
	return true
}

type confirmMappingRequest struct {
	Description string `json:"description" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	Sales       string `json:"sales" binding:"required"`
	Cost        string `json:"cost"`
}

type confirmMappingResponse struct {
	BatchID      string            `json:"batchId"`
	Mapping      map[string]string `json:"mapping"`
	CostMapped   bool              `json:"costMapped"`
	ProductCount int               `json:"productCount"`
}

func confirmMappingHandler(store *batchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		b, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found or superseded by a newer upload"})
			return
		}

		var req confirmMappingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "description, quantity and sales columns are required"})
			return
		}

		mapping := models.ColumnMapping{
			models.FieldDescription: strings.TrimSpace(req.Description),
			models.FieldQuantity:    strings.TrimSpace(req.Quantity),
			models.FieldSales:       strings.TrimSpace(req.Sales),
		}
		if cost := strings.TrimSpace(req.Cost); cost != "" {
			mapping[models.FieldCost] = cost
		}

		set, err := models.Aggregate(b.Headers, b.Rows, mapping)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, models.ErrEmptyDataset) {
				status = http.StatusUnprocessableEntity
			}
			config.LogError(logger, "batches.go", "confirmMappingHandler", "Aggregate", mapping, err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		if !store.confirm(b.ID, mapping, set) {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found or superseded by a newer upload"})
			return
		}

		logger.WithFields(logrus.Fields{
			"batch_id":    b.ID,
			"products":    set.Len(),
			"cost_mapped": set.CostMapped(),
		}).Info("[batch.mapping.confirmed]")

		c.JSON(http.StatusOK, gin.H{"data": confirmMappingResponse{
			BatchID:      b.ID,
			Mapping:      mappingToResponse(mapping),
			CostMapped:   set.CostMapped(),
			ProductCount: set.Len(),
		}})
	}
}

func getBatchHandler(store *batchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found or superseded by a newer upload"})
			return
		}

		_, set := b.state()
		resp := gin.H{
			"batchId":          b.ID,
			"createdAt":        b.CreatedAt.Format(time.RFC3339),
			"headers":          b.Headers,
			"rowCount":         len(b.Rows),
			"suggestedMapping": mappingToResponse(b.Suggested),
			"mappingConfirmed": set != nil,
		}
		if set != nil {
			resp["productCount"] = set.Len()
			resp["costMapped"] = set.CostMapped()
		}
		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func mappingToResponse(m models.ColumnMapping) map[string]string {
	out := make(map[string]string, len(m))
	for field, column := range m {
		out[string(field)] = column
	}
	return out
}
