package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"go.hackfix.me/dbmap/dbmap"
	"go.hackfix.me/dbmap/web/server/types"
)

// MapGet returns the value of the key in the URL path.
func (h *Handler) MapGet(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		_ = render.Render(w, r, types.ErrBadRequest(err))
		return
	}

	val, err := h.m.Get(r.Context(), key)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	_ = render.Render(w, r, &types.MapGetResponse{
		Response: &types.Response{StatusCode: http.StatusOK},
		Value:    val,
	})
}

// MapSet stores the value in the request body under the key in the URL path.
func (h *Handler) MapSet(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		_ = render.Render(w, r, types.ErrBadRequest(err))
		return
	}

	req := &types.MapSetRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, types.ErrBadRequest(err))
		return
	}

	if err := h.m.Set(r.Context(), key, *req.Value); err != nil {
		h.renderErr(w, r, err)
		return
	}

	_ = render.Render(w, r, &types.MapSetResponse{
		Response: &types.Response{StatusCode: http.StatusOK},
	})
}

// MapDelete deletes the key in the URL path.
func (h *Handler) MapDelete(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		_ = render.Render(w, r, types.ErrBadRequest(err))
		return
	}

	if err := h.m.Delete(r.Context(), key); err != nil {
		h.renderErr(w, r, err)
		return
	}

	_ = render.Render(w, r, &types.MapDeleteResponse{
		Response: &types.Response{StatusCode: http.StatusOK},
	})
}

// MapKeys returns the keys storing the value in the "value" query parameter,
// or all keys if it's not set. Keys are sorted.
func (h *Handler) MapKeys(w http.ResponseWriter, r *http.Request) {
	var (
		keys []string
		err  error
	)
	if q := r.URL.Query(); q.Has("value") {
		keys, err = h.m.GetKeys(r.Context(), q.Get("value"))
	} else {
		keys, err = h.m.Keys(r.Context())
	}
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	slices.Sort(keys)
	_ = render.Render(w, r, &types.MapKeysResponse{
		Response: &types.Response{StatusCode: http.StatusOK},
		Keys:     keys,
	})
}

func (h *Handler) renderErr(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, dbmap.ErrNotFound) && !errors.Is(err, dbmap.ErrEncodeFailed) {
		h.logger.Error("map operation failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	_ = render.Render(w, r, types.ErrResponse(err))
}

// keyParam returns the unescaped key in the URL path.
func keyParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "*")
	// chi routes on the escaped path if it differs from the decoded one.
	if r.URL.RawPath != "" {
		var err error
		if key, err = url.PathUnescape(key); err != nil {
			return "", fmt.Errorf("invalid key: %w", err)
		}
	}
	if key == "" {
		return "", errors.New("key not provided")
	}

	return key, nil
}
