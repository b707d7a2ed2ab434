package handler

import (
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
)

const maxCombinationLimit = 1000

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req domain.SolveRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 相同的请求总是得到相同的结果，先查缓存
	key, err := solveCacheKey(req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if out, ok := h.cachedOutcome(r.Context(), key); ok {
		h.successResponse(w, r, "求解成功", out)
		return
	}

	out, err := h.service.Solve(r.Context(), req)
	if err != nil {
		h.solveError(w, r, err)
		return
	}

	h.cacheOutcome(r.Context(), key, out)

	h.successResponse(w, r, "求解成功", out)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req domain.EvaluateRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.service.Evaluate(req)
	if err != nil {
		h.solveError(w, r, err)
		return
	}

	h.successResponse(w, r, "评估成功", out)
}

// queryInt 读取整数查询参数，缺省时返回 fallback
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func (h *Handler) GetCombinations(w http.ResponseWriter, r *http.Request) {
	employees, ok := queryInt(r, "employees", -1)
	if !ok || employees < 0 || employees > 100 {
		h.errorResponse(w, r, "员工数无效")
		return
	}
	size, ok := queryInt(r, "size", 2)
	if !ok || size < 0 {
		h.errorResponse(w, r, "组合大小无效")
		return
	}
	limit, ok := queryInt(r, "limit", 20)
	if !ok || limit <= 0 || limit > maxCombinationLimit {
		h.errorResponse(w, r, "limit 必须在 1 到 1000 之间")
		return
	}
	cycle := false
	if s := r.URL.Query().Get("cycle"); s != "" {
		var err error
		if cycle, err = strconv.ParseBool(s); err != nil {
			h.errorResponse(w, r, "cycle 参数无效")
			return
		}
	}

	combos, err := h.service.Combinations(employees, size, limit, cycle)
	if err != nil {
		h.solveError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取组合成功", combos)
}
