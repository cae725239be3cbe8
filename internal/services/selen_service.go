package services

import (
	"context"
	"errors"
	"log"
	"selen/internal/cache"
	"selen/internal/logging"
	"selen/internal/models"
	"selen/internal/utils"
	"time"

	"golang.org/x/sync/singleflight"
)

// Empty content policies
const (
	OnEmptyFail        = "fail"
	OnEmptyUseFallback = "useFallback"
)

// Persistence policies
const (
	PersistBestEffort = "bestEffort"
	PersistStrict     = "strict"
)

// NoContentFragment is used when even the fallback trigger has no content
const NoContentFragment = "No se encontraron contenidos."

// Completer produces a completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error)
}

// MemoryPersister durably stores a curated memory and returns its record ID
type MemoryPersister interface {
	Persist(ctx context.Context, memory models.CuratedMemory) (string, error)
}

// SelenOptions configures the pipeline policies
type SelenOptions struct {
	OnEmptyContent  string
	FallbackTrigger string
	PersistPolicy   string
	Completion      models.CompletionOptions
}

// SelenService resolves triggers into persona-driven completions
type SelenService struct {
	cache     cache.Cache
	content   ContentStore
	completer Completer
	persister MemoryPersister
	prompts   *PromptBuilder
	options   SelenOptions
	metrics   *Metrics
	group     singleflight.Group
	now       func() time.Time
}

// NewSelenService creates a new trigger pipeline. content should already be cache-memoized.
func NewSelenService(
	answers cache.Cache,
	content ContentStore,
	completer Completer,
	persister MemoryPersister,
	prompts *PromptBuilder,
	options SelenOptions,
	metrics *Metrics,
) *SelenService {
	if answers == nil {
		answers = cache.Noop{}
	}
	if options.OnEmptyContent == "" {
		options.OnEmptyContent = OnEmptyFail
	}
	if options.PersistPolicy == "" {
		options.PersistPolicy = PersistBestEffort
	}
	if options.FallbackTrigger == "" {
		options.FallbackTrigger = "selen"
	}
	return &SelenService{
		cache:     answers,
		content:   content,
		completer: completer,
		persister: persister,
		prompts:   prompts,
		options:   options,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Resolve runs the pipeline for a raw trigger value (not yet validated)
func (s *SelenService) Resolve(ctx context.Context, raw interface{}) (*models.SelenResult, error) {
	rawTrigger, ok := raw.(string)
	if !ok {
		s.metrics.RecordRequest(models.ErrorKindValidation.String())
		return nil, models.NewValidationError("El campo 'trigger' debe ser una cadena de texto")
	}
	if !utils.ValidTrigger(rawTrigger) {
		s.metrics.RecordRequest(models.ErrorKindValidation.String())
		if utils.NormalizeTrigger(rawTrigger) == "" {
			return nil, models.NewValidationError("Falta el campo 'trigger' en la solicitud")
		}
		return nil, models.NewValidationError("El campo 'trigger' supera la longitud máxima permitida")
	}

	key := utils.NormalizeTrigger(rawTrigger)
	logger := logging.WithTrigger(key)

	var answer models.ResolvedAnswer
	if s.cache.Get(ctx, cache.AnswerKey(key), &answer) {
		s.metrics.RecordCacheLookup("answer", true)
		s.metrics.RecordRequest("cache_hit")
		logger.Info("responding from cache")
		return &models.SelenResult{
			Prompt:        answer.Prompt,
			Respuesta:     answer.Respuesta,
			FromCache:     true,
			SavedToNotion: answer.SavedToNotion,
		}, nil
	}
	s.metrics.RecordCacheLookup("answer", false)

	// Identical keys share one computation that outlives any single caller
	detached := context.WithoutCancel(ctx)
	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.compute(detached, key)
	})
	if shared {
		s.metrics.RecordSharedRequest()
	}
	if err != nil {
		s.metrics.RecordRequest(models.KindOf(err).String())
		logger.Error("trigger resolution failed", "kind", models.KindOf(err).String(), "error", err)
		return nil, err
	}

	resolved := result.(models.ResolvedAnswer)
	s.metrics.RecordRequest("success")
	return &models.SelenResult{
		Prompt:        resolved.Prompt,
		Respuesta:     resolved.Respuesta,
		FromCache:     false,
		SavedToNotion: resolved.SavedToNotion,
	}, nil
}

func (s *SelenService) compute(ctx context.Context, key string) (models.ResolvedAnswer, error) {
	fragments, err := s.findContent(ctx, key)
	if err != nil {
		return models.ResolvedAnswer{}, err
	}

	prompt, err := s.prompts.Build(fragments)
	if err != nil {
		return models.ResolvedAnswer{}, err
	}

	started := time.Now()
	respuesta, err := s.completer.Complete(ctx, prompt, s.options.Completion)
	s.metrics.ObserveUpstream("completion", started)
	if err != nil {
		log.Printf("❌ [SELEN] Completion failed for '%s': %v", key, err)
		return models.ResolvedAnswer{}, err
	}

	now := s.now().UTC()
	saved, err := s.persist(ctx, models.NewCuratedMemory(key, respuesta, now))
	if err != nil {
		return models.ResolvedAnswer{}, err
	}

	answer := models.ResolvedAnswer{
		Contenidos:    fragments,
		Prompt:        prompt,
		Respuesta:     respuesta,
		SavedToNotion: saved,
		Timestamp:     now,
	}
	if !s.cache.Set(ctx, cache.AnswerKey(key), answer) {
		log.Printf("⚠️  [CACHE] Could not store answer for '%s'", key)
	}

	log.Printf("✅ [SELEN] Trigger '%s' resolved (%d fragments, saved=%v)", key, len(fragments), saved)
	return answer, nil
}

// findContent applies the empty content policy
func (s *SelenService) findContent(ctx context.Context, key string) ([]string, error) {
	fragments, err := s.content.FindByTrigger(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fragments) > 0 {
		return fragments, nil
	}

	if s.options.OnEmptyContent != OnEmptyUseFallback {
		return nil, models.NewNotFoundError(key)
	}

	log.Printf("⚠️  [SELEN] No content for '%s', using fallback trigger '%s'", key, s.options.FallbackTrigger)
	fallback := utils.NormalizeTrigger(s.options.FallbackTrigger)
	if fallback != key {
		fragments, err = s.content.FindByTrigger(ctx, fallback)
		if err != nil {
			return nil, err
		}
	}
	if len(fragments) == 0 {
		return []string{NoContentFragment}, nil
	}
	return fragments, nil
}

// persist applies the persistence policy and reports whether the memory was saved
func (s *SelenService) persist(ctx context.Context, memory models.CuratedMemory) (bool, error) {
	started := time.Now()
	id, err := s.persister.Persist(ctx, memory)
	s.metrics.ObserveUpstream("persistence", started)

	if err == nil && id == "" {
		err = models.NewPersistenceError("El almacén no devolvió un identificador", nil)
	}
	if err == nil {
		return true, nil
	}

	s.metrics.RecordPersistenceFailure()
	var pe *models.PipelineError
	if !errors.As(err, &pe) || pe.Kind != models.ErrorKindPersistence {
		err = models.NewPersistenceError("No se pudo guardar la memoria", err)
	}

	if s.options.PersistPolicy == PersistStrict {
		log.Printf("❌ [SELEN] Persistence failed for '%s': %v", memory.Clave, err)
		return false, err
	}
	log.Printf("⚠️  [SELEN] Persistence failed for '%s', continuing: %v", memory.Clave, err)
	return false, nil
}
