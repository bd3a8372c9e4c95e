package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Generic ownership-scoped CRUD handlers
// ============================================================

type lister[T any] interface {
	List(ctx context.Context, p domain.Principal, q domain.Query) ([]T, error)
}

type getter[T any] interface {
	Get(ctx context.Context, p domain.Principal, id string) (*T, error)
}

type creator[T any] interface {
	Create(ctx context.Context, p domain.Principal, doc *T) (*T, error)
}

type updater[T any] interface {
	Update(ctx context.Context, p domain.Principal, id string, patch json.RawMessage) (*T, error)
}

type deleter interface {
	Delete(ctx context.Context, p domain.Principal, id string) error
}

// crudService is the full set of record operations.
type crudService[T any] interface {
	lister[T]
	getter[T]
	creator[T]
	updater[T]
	deleter
}

// caller returns the principal set by the auth middleware. Routes using it
// are always mounted behind that middleware.
func caller(r *http.Request) domain.Principal {
	p, _ := PrincipalFromContext(r.Context())
	return p
}

func listHandler[T any](svc lister[T], filters []string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+r.URL.Path)
		defer span.End()

		items, err := svc.List(ctx, caller(r), listQuery(r, filters))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, items)
	}
}

func getHandler[T any](svc getter[T], logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+r.URL.Path)
		defer span.End()

		doc, err := svc.Get(ctx, caller(r), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, doc)
	}
}

// readHandler is getHandler with references expanded into summaries. With
// no expander it serves the stored record as is.
func readHandler[T any](svc getter[T], exp *service.Expander, refs []service.Ref, logger *zap.Logger) http.HandlerFunc {
	if exp == nil || len(refs) == 0 {
		return getHandler[T](svc, logger)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+r.URL.Path)
		defer span.End()

		doc, err := svc.Get(ctx, caller(r), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		out, err := exp.Expand(ctx, doc, refs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, out)
	}
}

func createHandler[T any](svc creator[T], logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST "+r.URL.Path)
		defer span.End()

		doc := new(T)
		if err := decodeJSON(r, doc); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		created, err := svc.Create(ctx, caller(r), doc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, created)
	}
}

func updateHandler[T any](svc updater[T], logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT "+r.URL.Path)
		defer span.End()

		patch, err := readRaw(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		doc, err := svc.Update(ctx, caller(r), chi.URLParam(r, "id"), patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, doc)
	}
}

func deleteHandler(svc deleter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE "+r.URL.Path)
		defer span.End()

		if err := svc.Delete(ctx, caller(r), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, struct{}{})
	}
}
