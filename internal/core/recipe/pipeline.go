// Package recipe 食譜萃取流程：結構化資料、AI 補強、備援啟發式與 AI 全權萃取
package recipe

import (
	"context"
	"strings"

	"recipe-parser/internal/core/recipe/dom"
	"recipe-parser/internal/core/recipe/normalize"
	"recipe-parser/internal/core/recipe/structured"
	"recipe-parser/internal/core/sanitizer"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// 各萃取來源回報的階段名稱
	StageStructured = "structured-data"
	StageAI         = "ai"

	untitledRecipe = "Untitled Recipe"

	warnAINotConfigured = "AI enrichment skipped: AI extraction is not configured"
	warnAIFailed        = "AI enrichment failed, returning structured data only"
)

// AIExtractor AI 萃取介面
type AIExtractor interface {
	Configured() bool
	FromHTML(ctx context.Context, cleanedHTML string) (*common.Draft, error)
	FromImage(ctx context.Context, imageDataURI string) (*common.Draft, error)
}

// HeuristicRunner 備援啟發式鏈
type HeuristicRunner interface {
	Run(page *dom.Page) (*common.Draft, string, bool)
}

// ImageProcessor 照片前處理
type ImageProcessor interface {
	ProcessImage(imageData string) (string, error)
}

type state string

const (
	stateAwaitStructured state = "await-structured"
	stateEnrichWithAI    state = "enrich-with-ai"
	stateAwaitHeuristics state = "await-heuristics"
	stateAIOnlyFallback  state = "ai-only-fallback"
	stateDone            state = "done"
	stateFailed          state = "failed"
)

// Pipeline 食譜萃取流程，每次呼叫互不共享狀態
type Pipeline struct {
	sanitizer  sanitizer.Sanitizer
	heuristics HeuristicRunner
	ai         AIExtractor
	fetcher    PageFetcher
	images     ImageProcessor
}

// NewPipeline 建立萃取流程，ai、fetcher、images 可為 nil；san 為 nil 時使用預設清理器
func NewPipeline(san sanitizer.Sanitizer, heuristics HeuristicRunner, ai AIExtractor, fetcher PageFetcher, images ImageProcessor) *Pipeline {
	if san == nil {
		san = sanitizer.New()
	}
	return &Pipeline{
		sanitizer:  san,
		heuristics: heuristics,
		ai:         ai,
		fetcher:    fetcher,
		images:     images,
	}
}

// run 單次 HTML 解析的工作狀態
type run struct {
	cleaned    string
	page       *dom.Page
	structured *common.Draft
	outcome    *common.ParseOutcome
	err        error
	warnings   []string
}

// ParseFromURL 抓取網頁後解析，成功時填入 sourceUrl
func (p *Pipeline) ParseFromURL(ctx context.Context, pageURL string) *common.ParseOutcome {
	if _, err := ValidateURL(pageURL); err != nil {
		return failure(err, nil)
	}
	if p.fetcher == nil {
		return failure(common.NewFetchError("page fetching is not available", 0, false, nil), nil)
	}

	raw, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		common.LogWarn("網頁抓取失敗", zap.String("url", pageURL), zap.Error(err))
		return failure(err, nil)
	}

	outcome := p.ParseFromHTML(ctx, raw)
	if outcome.Success && outcome.Recipe != nil {
		outcome.Recipe.SourceURL = strings.TrimSpace(pageURL)
	}
	return outcome
}

// ParseFromHTML 解析原始 HTML
func (p *Pipeline) ParseFromHTML(ctx context.Context, rawHTML string) *common.ParseOutcome {
	if strings.TrimSpace(rawHTML) == "" {
		return failure(common.NewInvalidInputError("html is empty", nil), nil)
	}

	cleaned := p.sanitizer.Clean(rawHTML)
	if !cleaned.Success {
		msg := cleaned.Error
		if msg == "" {
			msg = "sanitizer rejected the document"
		}
		return failure(common.NewSanitizerError(msg), nil)
	}

	page, err := dom.Parse(cleaned.HTML)
	if err != nil {
		return failure(common.NewSanitizerError("cleaned html could not be parsed"), nil)
	}

	r := &run{cleaned: cleaned.HTML, page: page}
	st := stateAwaitStructured
	for {
		common.LogDebug("萃取流程狀態", zap.String("state", string(st)))
		switch st {
		case stateAwaitStructured:
			st = p.awaitStructured(r)
		case stateEnrichWithAI:
			st = p.enrichWithAI(ctx, r)
		case stateAwaitHeuristics:
			st = p.awaitHeuristics(r)
		case stateAIOnlyFallback:
			st = p.aiOnlyFallback(ctx, r)
		case stateDone:
			return r.outcome
		case stateFailed:
			return failure(r.err, r.warnings)
		}
	}
}

// ParseFromImage 只走 AI 視覺萃取
func (p *Pipeline) ParseFromImage(ctx context.Context, imageData string) *common.ParseOutcome {
	if strings.TrimSpace(imageData) == "" {
		return failure(common.NewInvalidInputError("image data is empty", nil), nil)
	}
	if p.ai == nil || !p.ai.Configured() {
		return failure(common.NewNotConfiguredError(), nil)
	}

	dataURI := imageData
	if p.images != nil {
		processed, err := p.images.ProcessImage(imageData)
		if err != nil {
			if _, ok := common.AsCustomError(err); !ok {
				err = common.NewInvalidInputError("invalid image", err)
			}
			return failure(err, nil)
		}
		dataURI = processed
	}

	draft, err := p.ai.FromImage(ctx, dataURI)
	if err != nil {
		return failure(err, nil)
	}
	recipe, ok := finalize(draft)
	if !ok {
		return failure(common.NewNoRecipeError("no recipe could be read from the image"), nil)
	}
	return success(recipe, common.MethodAIOnly, StageAI, nil)
}

func (p *Pipeline) awaitStructured(r *run) state {
	draft, ok := structured.Extract(r.page)
	if !ok {
		return stateAwaitHeuristics
	}
	r.structured = draft
	common.LogInfo("找到結構化食譜資料",
		zap.String("title", draft.Title),
		zap.Int("ingredients", draft.IngredientCount()),
		zap.Int("instructions", len(draft.Instructions)),
	)
	return stateEnrichWithAI
}

// enrichWithAI 一定產出結果：AI 失敗時回傳只有結構化資料的食譜並附上警告
func (p *Pipeline) enrichWithAI(ctx context.Context, r *run) state {
	draft := r.structured
	method := common.MethodStructuredOnly

	switch {
	case p.ai == nil || !p.ai.Configured():
		r.warnings = append(r.warnings, warnAINotConfigured)
	default:
		aiDraft, err := p.ai.FromHTML(ctx, r.cleaned)
		if err != nil {
			common.LogWarn("AI 補強失敗，使用結構化資料",
				zap.String("error_kind", common.ErrorCode(err)),
				zap.Error(err),
			)
			r.warnings = append(r.warnings, warnAIFailed+" ("+common.ErrorCode(err)+")")
		} else {
			draft = mergeDrafts(r.structured, aiDraft)
			method = common.MethodStructuredAI
		}
	}

	recipe, ok := finalize(draft)
	if !ok {
		// 合併後仍需通過非空檢查，否則退回純結構化資料
		recipe, ok = finalize(r.structured)
		method = common.MethodStructuredOnly
	}
	if !ok {
		r.err = common.NewNoRecipeError("structured recipe data was empty after normalization")
		return stateFailed
	}
	r.outcome = success(recipe, method, StageStructured, r.warnings)
	return stateDone
}

func (p *Pipeline) awaitHeuristics(r *run) state {
	if p.heuristics == nil {
		return stateAIOnlyFallback
	}
	draft, stage, ok := p.heuristics.Run(r.page)
	if !ok {
		return stateAIOnlyFallback
	}
	recipe, ok := finalize(draft)
	if !ok {
		common.LogDebug("備援結果正規化後為空", zap.String("stage", stage))
		return stateAIOnlyFallback
	}
	r.outcome = success(recipe, common.MethodStructuredOnly, stage, r.warnings)
	return stateDone
}

func (p *Pipeline) aiOnlyFallback(ctx context.Context, r *run) state {
	if p.ai == nil || !p.ai.Configured() {
		r.warnings = append(r.warnings, warnAINotConfigured)
		r.err = common.NewNoRecipeError("no recipe found on the page")
		return stateFailed
	}

	draft, err := p.ai.FromHTML(ctx, r.cleaned)
	if err != nil {
		r.err = err
		return stateFailed
	}
	recipe, ok := finalize(draft)
	if !ok {
		r.err = common.NewNoRecipeError("AI result was empty after normalization")
		return stateFailed
	}
	r.outcome = success(recipe, common.MethodAIOnly, StageAI, r.warnings)
	return stateDone
}

// finalize 正規化並檢查食材與步驟皆不為空
func finalize(d *common.Draft) (*common.Recipe, bool) {
	if d == nil {
		return nil, false
	}
	recipe := normalize.Recipe(d)
	if len(recipe.Ingredients) == 0 || len(recipe.Instructions) == 0 {
		return nil, false
	}
	if recipe.Title == "" {
		recipe.Title = untitledRecipe
	}
	return &recipe, true
}

func success(recipe *common.Recipe, method common.ExtractionMethod, stage string, warnings []string) *common.ParseOutcome {
	common.LogInfo("食譜萃取完成",
		zap.String("method", string(method)),
		zap.String("stage", stage),
		zap.String("title", recipe.Title),
	)
	return &common.ParseOutcome{
		Success:          true,
		Recipe:           recipe,
		ExtractionMethod: method,
		Stage:            stage,
		Warnings:         warnings,
	}
}

// failure 失敗結果不帶任何部分食譜
func failure(err error, warnings []string) *common.ParseOutcome {
	if err == nil {
		err = common.NewNoRecipeError("no recipe found")
	}
	out := &common.ParseOutcome{
		Success:          false,
		ErrorKind:        common.ErrorCode(err),
		Error:            err.Error(),
		ExtractionMethod: common.MethodNone,
		Warnings:         warnings,
	}
	if ce, ok := common.AsCustomError(err); ok {
		out.Timeout = ce.Timeout
		if !ce.RetryAfter.IsZero() {
			out.RetryAfterEpochMs = ce.RetryAfter.UnixMilli()
		}
	}
	common.LogInfo("食譜萃取失敗",
		zap.String("error_kind", out.ErrorKind),
		zap.String("error", out.Error),
	)
	return out
}
