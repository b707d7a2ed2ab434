package handler

type ContextKey string

var (
	SubCtxKey   ContextKey = "sub"
	SolveJobCtx ContextKey = "solveJob"
)
