package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/pkg/llm"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/pkg/prompt"
)

var (
	ErrExecutionFailed = errors.New("AI 服务暂时不可用，请稍后重试")
	ErrMissingField    = prompt.ErrMissingField
	ErrInvalidTaskKind = errors.New("不支持的任务类型")
)

// TextGenerator 文本生成服务
type TextGenerator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Executor 渲染提示词并调用一次文本生成服务
type Executor struct {
	gen     TextGenerator
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewExecutor(gen TextGenerator, m *metrics.Collector, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{gen: gen, metrics: m, log: log}
}

// Prepare 校验字段并渲染提示词
func (e *Executor) Prepare(kind model.TaskKind, fields map[string]string) (prompt.Prompt, error) {
	if !kind.Valid() {
		return prompt.Prompt{}, ErrInvalidTaskKind
	}
	return prompt.Render(kind, fields)
}

// Run 调用文本生成服务，不重试
func (e *Executor) Run(ctx context.Context, kind model.TaskKind, p prompt.Prompt) (string, error) {
	start := time.Now()
	out, err := e.gen.Complete(ctx, llm.Request{
		System:      p.System,
		User:        p.User,
		JSON:        p.JSON,
		Temperature: p.Temperature,
	})
	e.metrics.ObserveProvider(time.Since(start), err)

	if err != nil {
		e.log.Warn("task execution failed", zap.String("kind", string(kind)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	return out, nil
}

// Execute Prepare + Run
func (e *Executor) Execute(ctx context.Context, kind model.TaskKind, fields map[string]string) (string, error) {
	p, err := e.Prepare(kind, fields)
	if err != nil {
		return "", err
	}
	return e.Run(ctx, kind, p)
}
