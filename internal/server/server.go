// Package server exposes replay decoding and the replay index over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/vaultcoh/vault"
	"github.com/vaultcoh/vault/internal/replayfile"
	"github.com/vaultcoh/vault/internal/store"
)

const contentType = "content-type"

// Index is the part of the replay index the server uses.
type Index interface {
	Save(ctx context.Context, key string, rep *vault.Replay) (*store.Record, error)
	Get(ctx context.Context, key string) (*store.Record, error)
	List(ctx context.Context) ([]store.Record, error)
}

// Server is an http.Handler serving the /v1 API.
type Server struct {
	index      Index
	maxUpload  int64
	maxDecoded int64
	router     *httprouter.Router
}

// New returns a Server. index may be nil, which disables storing and the
// lookup endpoints. maxUpload bounds the request body and maxDecoded the
// replay after zstd decompression.
func New(index Index, maxUpload, maxDecoded int64) *Server {
	s := &Server{
		index:      index,
		maxUpload:  maxUpload,
		maxDecoded: maxDecoded,
		router:     httprouter.New(),
	}
	s.router.POST("/v1/replays", s.decodeReplay)
	s.router.GET("/v1/replays", s.listReplays)
	s.router.GET("/v1/replays/:key", s.getReplay)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info().Str("method", req.Method).Str("url", req.URL.String()).Msg("request")

	s.router.ServeHTTP(w, req)
}

// DecodeResponse is the body of a successful upload.
type DecodeResponse struct {
	Key     string        `json:"key"`
	Stored  bool          `json:"stored"`
	Summary vault.Summary `json:"summary"`
}

func (s *Server) decodeReplay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("replay larger than %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := replayfile.Decode(body, s.maxDecoded)
	if errors.Is(err, replayfile.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("replay decompresses to more than %d bytes", s.maxDecoded))
		return
	} else if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := vault.Parse(data)
	if err != nil {
		log.Warn().Err(err).Int("size", len(data)).Msg("rejected replay")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := DecodeResponse{Key: store.Key(data), Summary: rep.Summary()}

	if r.URL.Query().Get("store") == "1" {
		if s.index == nil {
			writeError(w, http.StatusNotImplemented, "replay index is not configured")
			return
		}
		if _, err := s.index.Save(r.Context(), resp.Key, rep); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Stored = true
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getReplay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.index == nil {
		writeError(w, http.StatusNotImplemented, "replay index is not configured")
		return
	}

	rec, err := s.index.Get(r.Context(), ps.ByName("key"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "replay not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("error during lookup of replay %v: %v", ps.ByName("key"), err))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listReplays(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.index == nil {
		writeError(w, http.StatusNotImplemented, "replay index is not configured")
		return
	}

	records, err := s.index.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(contentType, "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{
		Error: msg,
	})
}
