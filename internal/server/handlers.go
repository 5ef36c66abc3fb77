package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/kimawashi/internal/cli"
	"github.com/hyperjump/kimawashi/internal/feature"
	"github.com/hyperjump/kimawashi/internal/models"
	"github.com/hyperjump/kimawashi/pkg/utils"
	"go.uber.org/zap"
)

// maxUploadBytes caps recommend request bodies (image uploads).
const maxUploadBytes = 32 << 20

// handleRecommend serves recommendation requests. Two request shapes:
// multipart/form-data with an "image" file plus "categories" and "top_k"
// fields, in which case the query embedding is produced by the embedding
// provider; or JSON {"vector", "categories", "top_k"} with a precomputed
// embedding, which is normalized at this boundary.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()[:8]
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var query models.RecommendQuery
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if !s.parseMultipartQuery(w, r, reqID, &query) {
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if utils.L2Norm(query.Vector) == 0 {
			s.respondError(w, http.StatusBadRequest, "query vector cannot be zero")
			return
		}
		// Raw client vectors are not trusted to be unit-normalized.
		utils.NormalizeL2(query.Vector)
	}

	if len(query.Categories) == 0 {
		query.Categories = s.config.Recommend.DefaultCategories
	}

	s.logger.Debug("recommend request",
		zap.String("request_id", reqID),
		zap.Strings("categories", query.Categories),
		zap.Int("top_k", query.TopK),
	)
	response, err := s.engine.Recommend(&query)
	if err != nil {
		if errors.Is(err, feature.ErrDimensionMismatch) {
			s.logger.Error("recommend dimension mismatch", zap.String("request_id", reqID), zap.Error(err))
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("recommend failed", zap.String("request_id", reqID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(response.UnknownCategories) > 0 {
		s.logger.Warn("unknown categories requested",
			zap.String("request_id", reqID),
			zap.Strings("categories", response.UnknownCategories),
		)
	}
	s.respondJSON(w, http.StatusOK, response)
}

// parseMultipartQuery fills query from a multipart upload, embedding the image.
// Writes an error response and returns false on failure.
func (s *Server) parseMultipartQuery(w http.ResponseWriter, r *http.Request, reqID string, query *models.RecommendQuery) bool {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "image file is required")
		return false
	}
	defer file.Close()
	imageData, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read image")
		return false
	}

	vector, err := s.embedder.Embed(r.Context(), imageData)
	if err != nil {
		s.logger.Error("embedding failed", zap.String("request_id", reqID), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, "failed to embed image")
		return false
	}
	query.Vector = vector
	query.Categories = cli.SplitCategories(r.FormValue("categories"))
	if v := r.FormValue("top_k"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "top_k must be an integer")
			return false
		}
		query.TopK = topK
	}
	return true
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": s.engine.Store().Categories(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	resp := map[string]interface{}{
		"items":      store.Size(),
		"dimensions": store.Dim(),
		"categories": len(store.Categories()),
		"config": map[string]interface{}{
			"snapshot_path":       s.config.Store.SnapshotPath,
			"embedder_type":       s.config.Embedding.Type,
			"embedder_dimensions": s.embedder.Dimensions(),
			"default_top_k":       s.config.Recommend.DefaultTopK,
			"max_top_k":           s.config.Recommend.MaxTopK,
			"default_categories":  s.config.Recommend.DefaultCategories,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
