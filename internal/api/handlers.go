package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleHealth reports liveness plus component presence.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"rules":     s.engine.RuleCount(),
		"trees":     s.trees != nil,
		"scheduler": s.scheduler != nil,
	})
}

// ─── Rules ──────────────────────────────────────────────────────────────────

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rules": s.engine.Rules()})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := s.engine.Rule(id)
	if !ok {
		writeNotFound(w, "rule not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleEnableRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.engine.EnableRule(id) {
		writeNotFound(w, "rule not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": false})
}

func (s *Server) handleDisableRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.engine.DisableRule(id) {
		writeNotFound(w, "rule not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": true})
}

func (s *Server) handleSetRulePriority(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Priority int `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body: expected {\"priority\": int}")
		return
	}
	if !s.engine.SetRulePriority(id, body.Priority) {
		writeNotFound(w, "rule not found: "+id)
		return
	}
	info, _ := s.engine.Rule(id)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRuleHistory(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeNotFound(w, "history recorder not configured")
		return
	}
	id := chi.URLParam(r, "id")
	offset, limit := pageParams(r)

	result, err := s.recorder.RuleExecutions(r.Context(), id, offset, limit)
	if err != nil {
		writeInternalError(w, "querying rule history: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ─── Rule groups ────────────────────────────────────────────────────────────

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    name,
		"enabled": s.engine.GroupEnabled(name),
		"rules":   s.engine.RulesByGroup(name),
	})
}

func (s *Server) handleEnableGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.engine.EnableGroup(name)
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "enabled": true})
}

func (s *Server) handleDisableGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.engine.DisableGroup(name)
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "enabled": false})
}

// ─── Behavior trees ─────────────────────────────────────────────────────────

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeNotFound(w, "behavior trees not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trees": s.trees.Names(),
		"stats": s.trees.AllStats(),
	})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeNotFound(w, "behavior trees not configured")
		return
	}
	name := chi.URLParam(r, "name")
	doc, ok := s.trees.TreeValue(name)
	if !ok {
		writeNotFound(w, "tree not found: "+name)
		return
	}
	status, _ := s.trees.Status(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   name,
		"status": status.String(),
		"tree":   doc,
	})
}

func (s *Server) handleTreeStats(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeNotFound(w, "behavior trees not configured")
		return
	}
	name := chi.URLParam(r, "name")
	stats, ok := s.trees.Stats(name)
	if !ok {
		writeNotFound(w, "tree not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePauseTree(w http.ResponseWriter, r *http.Request) {
	s.treeControl(w, r, func(name string) bool { return s.trees.Pause(name) }, "paused")
}

func (s *Server) handleResumeTree(w http.ResponseWriter, r *http.Request) {
	s.treeControl(w, r, func(name string) bool { return s.trees.Resume(name) }, "resumed")
}

func (s *Server) handleResetTree(w http.ResponseWriter, r *http.Request) {
	s.treeControl(w, r, func(name string) bool { return s.trees.Reset(name) }, "reset")
}

func (s *Server) treeControl(w http.ResponseWriter, r *http.Request, op func(string) bool, action string) {
	if s.trees == nil {
		writeNotFound(w, "behavior trees not configured")
		return
	}
	name := chi.URLParam(r, "name")
	if !op(name) {
		writeNotFound(w, "tree not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "action": action})
}

// ─── Scheduler ──────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeNotFound(w, "scheduler not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.scheduler.Tasks()})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeNotFound(w, "scheduler not configured")
		return
	}
	id := chi.URLParam(r, "id")
	info, ok := s.scheduler.Task(id)
	if !ok {
		writeNotFound(w, "task not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeNotFound(w, "scheduler not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if !s.scheduler.CancelTask(id) {
		writeNotFound(w, "task not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "cancelled": true})
}

func (s *Server) handleEnableTask(w http.ResponseWriter, r *http.Request) {
	s.taskEnable(w, r, true)
}

func (s *Server) handleDisableTask(w http.ResponseWriter, r *http.Request) {
	s.taskEnable(w, r, false)
}

func (s *Server) taskEnable(w http.ResponseWriter, r *http.Request, enabled bool) {
	if s.scheduler == nil {
		writeNotFound(w, "scheduler not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if !s.scheduler.SetTaskEnabled(id, enabled) {
		writeNotFound(w, "task not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": enabled})
}

func (s *Server) handleSchedulerStats(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeNotFound(w, "scheduler not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Stats())
}

// ─── History ────────────────────────────────────────────────────────────────

func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeNotFound(w, "history recorder not configured")
		return
	}
	name := chi.URLParam(r, "name")
	offset, limit := pageParams(r)

	result, err := s.recorder.SensorSamples(r.Context(), name, offset, limit)
	if err != nil {
		writeInternalError(w, "querying sensor history: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// pageParams extracts offset/limit query parameters with defaults.
func pageParams(r *http.Request) (offset, limit int) {
	limit = 50
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return offset, limit
}
