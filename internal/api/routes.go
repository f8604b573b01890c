// Package api provides HTTP handlers for the cryoViz viewer server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/annotation"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/cache"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/measure"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/render"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/savedview"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/session"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// userHeader carries the opaque identity of the caller. Annotation and
// saved-view mutations are rejected without it.
const userHeader = "X-User"

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *DatasetRegistry
	Sessions    *session.Manager
	Annotations annotation.Store
	Views       savedview.Store
	Cache       *cache.Manager
	Renderer    *render.Renderer
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/datasets", datasetsHandler(cfg.Registry))
	r.Get("/api/cache/stats", cacheStatsHandler(cfg.Cache))

	// Session lifecycle
	r.Post("/api/sessions", sessionCreateHandler(cfg))

	// Session-scoped routes
	r.Route("/api/sessions/{session_id}", func(r chi.Router) {
		r.Use(sessionMiddleware(cfg))

		r.Get("/", sessionStateHandler)
		r.Get("/state", sessionStateHandler)
		r.Delete("/", sessionDeleteHandler(cfg.Sessions))

		r.Post("/events/click", clickHandler)
		r.Post("/events/wheel", wheelHandler)
		r.Post("/events/drag", dragHandler)
		r.Post("/mode", modeHandler)
		r.Post("/reset/{plane}", resetHandler)

		r.Get("/planes/{plane}.png", planeHandler(cfg))
		// NOTE: chi treats '.' as a param delimiter when the route pattern is
		// `{plane}.png`, which breaks for clients that URL-encode the dot.
		// Capture the full segment too and strip the extension in the handler.
		r.Get("/planes/{plane}", planeHandler(cfg))
		r.Get("/planes/{plane}/slices/{index}.png", baseSliceHandler(cfg))

		r.Get("/measurements", measurementsHandler)

		r.Route("/annotations", func(r chi.Router) {
			r.Get("/", annotationListHandler)
			r.Post("/", annotationSaveHandler)
			r.Put("/{annotation_id}", annotationUpdateHandler)
			r.Put("/{annotation_id}/position", annotationPositionHandler)
			r.Post("/{annotation_id}/goto", annotationGotoHandler)
			r.Delete("/{annotation_id}", annotationDeleteHandler)
		})
	})

	// Saved views (dataset-scoped, not session-scoped)
	r.Route("/api/views", func(r chi.Router) {
		r.Get("/", viewListHandler(cfg))
		r.Post("/", viewSaveHandler(cfg))
		r.Post("/delete", viewBulkDeleteHandler(cfg))
		r.Post("/{view_id}/load", viewLoadHandler(cfg))
		r.Put("/{view_id}", viewRenameHandler(cfg))
		r.Delete("/{view_id}", viewDeleteHandler(cfg))
	})

	return r
}

// Context key for the resolved session
type ctxKey string

const sessionCtxKey ctxKey = "viewerSession"

// sessionEnv is what the session middleware injects: the session itself
// and the dataset it views.
type sessionEnv struct {
	sess *session.Session
	ds   *Dataset
}

// sessionMiddleware resolves the session from the URL and injects it into
// the request context.
func sessionMiddleware(cfg RouterConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session_id")
			sess, err := cfg.Sessions.Get(id)
			if err != nil {
				http.Error(w, "session not found: "+id, http.StatusNotFound)
				return
			}
			ds := cfg.Registry.Get(sess.DatasetID)
			if ds == nil {
				http.Error(w, "dataset not found: "+sess.DatasetID, http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey, &sessionEnv{sess: sess, ds: ds})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSessionEnv(r *http.Request) *sessionEnv {
	if env, ok := r.Context().Value(sessionCtxKey).(*sessionEnv); ok {
		return env
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// datasetsHandler returns the list of available datasets.
func datasetsHandler(registry *DatasetRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"default":  registry.DefaultDatasetID(),
			"datasets": registry.Datasets(),
			"title":    registry.Title(),
		})
	}
}

func cacheStatsHandler(c *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Stats())
	}
}

// sessionCreateHandler opens a viewer session against a dataset, loading
// the dataset's slice stacks if this is its first session.
func sessionCreateHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Dataset string `json:"dataset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Dataset == "" {
			req.Dataset = cfg.Registry.DefaultDatasetID()
		}
		ds := cfg.Registry.Get(req.Dataset)
		if ds == nil {
			http.Error(w, "dataset not found: "+req.Dataset, http.StatusNotFound)
			return
		}

		if err := ds.Ensure(r.Context()); err != nil {
			log.Printf("dataset %s: slice load failed: %v", ds.ID, err)
			http.Error(w, "dataset unavailable: "+err.Error(), http.StatusBadGateway)
			return
		}
		sizes, err := ds.PlaneSizes()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		user := strings.TrimSpace(r.Header.Get(userHeader))
		ann := annotation.NewManager(cfg.Annotations, user, ds.ID)
		if err := ann.FetchAll(r.Context()); err != nil {
			// The session still opens; the annotation list stays empty.
			log.Printf("session for %s: annotation fetch failed: %v", ds.ID, err)
		}

		sess := session.New(ds.ID, ds.Store.Dims(), sizes, ds.Config.MicronsPerPixel, ann)
		cfg.Sessions.Put(sess)
		writeJSON(w, http.StatusCreated, sessionState(sess, ds))
	}
}

func sessionDeleteHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := getSessionEnv(r)
		sessions.Delete(env.sess.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

type planeStateJSON struct {
	Zoom  float64 `json:"zoom"`
	Pan   r2.Vec  `json:"pan"`
	Slice int     `json:"slice"`
	W     int     `json:"w"`
	H     int     `json:"h"`
}

func sessionState(sess *session.Session, ds *Dataset) map[string]interface{} {
	cur := sess.Cursor()
	planes := make(map[geometry.Plane]planeStateJSON, 3)
	for _, p := range geometry.Planes() {
		tr := sess.Transform(p)
		size := sess.Size(p)
		planes[p] = planeStateJSON{
			Zoom:  tr.Zoom,
			Pan:   tr.Pan,
			Slice: p.SliceIndex(cur),
			W:     size.W,
			H:     size.H,
		}
	}
	return map[string]interface{}{
		"id":              sess.ID,
		"dataset":         ds.ID,
		"user":            sess.Annotations().User(),
		"mode":            sess.Mode(),
		"cursor":          cur,
		"dims":            sess.Dims(),
		"micronsPerPixel": ds.Config.MicronsPerPixel,
		"planes":          planes,
	}
}

func sessionStateHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	writeJSON(w, http.StatusOK, sessionState(env.sess, env.ds))
}

type clickRequest struct {
	Plane geometry.Plane `json:"plane"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
}

func clickHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := env.sess.Click(req.Plane, r2.Vec{X: req.X, Y: req.Y})
	if err != nil {
		if errors.Is(err, annotation.ErrNoUser) {
			http.Error(w, "annotation requires a user identity", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"action": res.Action,
		"cursor": res.Cursor,
	}
	if res.Line != nil {
		resp["line"] = res.Line
	}
	if res.Pending != nil {
		resp["annotation"] = res.Pending
	}
	writeJSON(w, http.StatusOK, resp)
}

func wheelHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	var req struct {
		Plane geometry.Plane `json:"plane"`
		Up    bool           `json:"up"`
		Ctrl  bool           `json:"ctrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	env.sess.Wheel(req.Plane, req.Up, req.Ctrl)
	writeJSON(w, http.StatusOK, sessionState(env.sess, env.ds))
}

func dragHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	var req struct {
		Plane geometry.Plane `json:"plane"`
		DX    float64        `json:"dx"`
		DY    float64        `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	env.sess.Drag(req.Plane, req.DX, req.DY)
	writeJSON(w, http.StatusOK, sessionState(env.sess, env.ds))
}

func modeHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env.sess.SetMode(mode)
	writeJSON(w, http.StatusOK, sessionState(env.sess, env.ds))
}

func resetHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	plane, err := geometry.ParsePlane(chi.URLParam(r, "plane"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env.sess.ResetTransform(plane)
	writeJSON(w, http.StatusOK, sessionState(env.sess, env.ds))
}

// planeHandler renders one plane's composite. Frames are cached keyed by
// the session's state revision, so unchanged state is served from cache
// and any mutation naturally misses.
func planeHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := getSessionEnv(r)
		planeParam := strings.TrimSuffix(chi.URLParam(r, "plane"), ".png")
		plane, err := geometry.ParsePlane(planeParam)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		key := cache.FrameKey(env.ds.ID, env.sess.ID, plane, env.sess.Rev())
		if data, ok := cfg.Cache.GetFrame(key); ok {
			servePNG(w, data)
			return
		}

		cur := env.sess.Cursor()
		img, err := env.ds.Store.Slice(plane, plane.SliceIndex(cur))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		size := env.sess.Size(plane)
		tr := env.sess.Transform(plane)
		pixel := plane.PixelFromCursor(cur, size.W, size.H, env.sess.Dims())

		frame := render.Frame{
			Plane:         plane,
			Slice:         img,
			Transform:     tr,
			Crosshair:     tr.PixelToScreen(pixel, r2.Vec{}),
			ShowCrosshair: true,
			Lines:         env.sess.Measures().Lines(plane),
		}
		if pts := env.sess.Measures().Points(plane); len(pts)%2 == 1 {
			last := pts[len(pts)-1]
			frame.TrailingPoint = &last
		}

		data, err := cfg.Renderer.DrawPlane(frame)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := cfg.Cache.SetFrame(key, data); err != nil {
			log.Printf("frame cache: %v", err)
		}
		servePNG(w, data)
	}
}

// baseSliceHandler serves one bare slice with no overlays or transform.
// Unlike composited frames these never change for a dataset, so they are
// cached by index and may be cached by the client too.
func baseSliceHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := getSessionEnv(r)
		plane, err := geometry.ParsePlane(chi.URLParam(r, "plane"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "invalid slice index", http.StatusBadRequest)
			return
		}

		key := cache.BaseSliceKey(env.ds.ID, plane, index)
		if data, ok := cfg.Cache.GetBase(key); ok {
			serveBasePNG(w, data)
			return
		}

		img, err := env.ds.Store.Slice(plane, index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		data, err := cfg.Renderer.DrawBase(img)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		cfg.Cache.SetBase(key, data)
		serveBasePNG(w, data)
	}
}

func serveBasePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func servePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	// The URL does not change when the session state does, so the client
	// must not cache frames.
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

type planeMeasurements struct {
	Points []r2.Vec       `json:"points"`
	Lines  []measure.Line `json:"lines"`
}

func measurementsHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	planes := make(map[geometry.Plane]planeMeasurements, 3)
	for _, p := range geometry.Planes() {
		planes[p] = planeMeasurements{
			Points: env.sess.Measures().Points(p),
			Lines:  env.sess.Measures().Lines(p),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"planes":          planes,
		"micronsPerPixel": env.ds.Config.MicronsPerPixel,
	})
}

// Annotation handlers. All mutations go through the session's manager,
// which enforces the user identity requirement.

func annotationListHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	if r.URL.Query().Get("refresh") != "" {
		if err := env.sess.Annotations().FetchAll(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
	list := env.sess.Annotations().Annotations()
	if list == nil {
		list = []annotation.Annotation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func annotationSaveHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	var a annotation.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := env.sess.Annotations().Save(r.Context(), a, false); err != nil {
		annotationError(w, err)
		return
	}
	saved, ok := env.sess.Annotations().Find(a.ID)
	if !ok {
		// Empty text dropped the annotation instead of saving it.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func annotationUpdateHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	id := chi.URLParam(r, "annotation_id")
	existing, ok := env.sess.Annotations().Find(id)
	if !ok {
		http.Error(w, "annotation not found: "+id, http.StatusNotFound)
		return
	}
	var a annotation.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a.ID = existing.ID
	a.RemoteID = existing.RemoteID
	if err := env.sess.Annotations().Save(r.Context(), a, false); err != nil {
		annotationError(w, err)
		return
	}
	saved, ok := env.sess.Annotations().Find(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func annotationPositionHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	id := chi.URLParam(r, "annotation_id")
	existing, ok := env.sess.Annotations().Find(id)
	if !ok {
		http.Error(w, "annotation not found: "+id, http.StatusNotFound)
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	existing.X, existing.Y = req.X, req.Y
	if err := env.sess.Annotations().Save(r.Context(), existing, true); err != nil {
		annotationError(w, err)
		return
	}
	saved, _ := env.sess.Annotations().Find(id)
	writeJSON(w, http.StatusOK, saved)
}

func annotationGotoHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	id := chi.URLParam(r, "annotation_id")
	a, ok := env.sess.Annotations().Find(id)
	if !ok {
		http.Error(w, "annotation not found: "+id, http.StatusNotFound)
		return
	}
	cur := env.sess.GoToAnnotation(a)
	writeJSON(w, http.StatusOK, map[string]interface{}{"cursor": cur})
}

func annotationDeleteHandler(w http.ResponseWriter, r *http.Request) {
	env := getSessionEnv(r)
	id := chi.URLParam(r, "annotation_id")
	del := env.sess.Annotations().Delete
	if r.URL.Query().Get("soft") != "" {
		// Soft delete keeps the row with status "deleted" instead of
		// removing it.
		del = env.sess.Annotations().Archive
	}
	if err := del(r.Context(), id); err != nil {
		annotationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func annotationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, annotation.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, annotation.ErrMissingRemoteID), errors.Is(err, annotation.ErrInvalidRemoteID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, annotation.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Saved-view handlers.

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.Header.Get(userHeader))
	if user == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusForbidden)
		return "", false
	}
	return user, true
}

func viewListHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dataset := r.URL.Query().Get("dataset")
		if dataset == "" {
			dataset = cfg.Registry.DefaultDatasetID()
		}
		views, err := cfg.Views.List(r.Context(), dataset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if views == nil {
			views = []savedview.SavedView{}
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func viewSaveHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Session string `json:"session"`
			Name    string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		sess, err := cfg.Sessions.Get(req.Session)
		if err != nil {
			http.Error(w, "session not found: "+req.Session, http.StatusNotFound)
			return
		}

		snap := sess.Snapshot()
		planes := make(map[geometry.Plane]savedview.PlaneState, 3)
		for p, tr := range snap.Transforms {
			planes[p] = savedview.PlaneState{Zoom: tr.Zoom, Pan: tr.Pan}
		}
		id, err := cfg.Views.Save(r.Context(), savedview.SavedView{
			DatasetID: sess.DatasetID,
			Name:      req.Name,
			Coords:    snap.Cursor,
			Planes:    planes,
			Creator:   user,
		})
		if err != nil {
			viewError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func viewLoadHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Session string `json:"session"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		sess, err := cfg.Sessions.Get(req.Session)
		if err != nil {
			http.Error(w, "session not found: "+req.Session, http.StatusNotFound)
			return
		}

		view, err := cfg.Views.Load(r.Context(), chi.URLParam(r, "view_id"), user)
		if err != nil {
			viewError(w, err)
			return
		}

		snap := session.Snapshot{
			Cursor:     view.Coords,
			Transforms: make(map[geometry.Plane]geometry.Transform, 3),
		}
		for p, st := range view.Planes {
			snap.Transforms[p] = geometry.Transform{Zoom: st.Zoom, Pan: st.Pan}
		}
		sess.Restore(snap)
		writeJSON(w, http.StatusOK, view)
	}
}

func viewRenameHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := cfg.Views.Rename(r.Context(), chi.URLParam(r, "view_id"), req.Name); err != nil {
			viewError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewDeleteHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		if err := cfg.Views.Delete(r.Context(), chi.URLParam(r, "view_id")); err != nil {
			viewError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewBulkDeleteHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := cfg.Views.Delete(r.Context(), req.IDs...); err != nil {
			viewError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, savedview.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, savedview.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
