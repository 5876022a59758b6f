package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"semantist/internal/cluster"
	"semantist/internal/llm"
	"semantist/internal/models"
	"semantist/internal/scraper"
	"semantist/internal/services"
	"semantist/internal/wordstat"
)

const greeting = "Привет! Я AI-маркетолог.\n" +
	"Я умею собирать семантику из Wordstat, кластеризовать её и писать объявления.\n" +
	"Нажми кнопку ниже или просто отправь мне маску запроса (например: 'купить слона')."

// minManualContent rejects pasted page text too short to analyze.
const minManualContent = 50

// Messenger is the outbound chat surface the engine drives.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard interface{}) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	SendDocument(ctx context.Context, chatID int64, filePath, caption string) error
}

// SiteFetcher fetches readable landing-page text.
type SiteFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// AdGenerator produces ad variants for one cluster.
type AdGenerator interface {
	Generate(ctx context.Context, cluster models.Cluster, siteContext string) ([]models.AdCopy, error)
}

// BundleExporter delivers a finished bundle to its sinks.
type BundleExporter interface {
	Export(ctx context.Context, bundle models.CampaignBundle) (models.ExportResult, error)
}

// Recorder persists campaign-run history.
type Recorder interface {
	InsertCampaignRun(ctx context.Context, run *models.CampaignRun) error
}

// Deps wires the engine's collaborators. Scraper, Recorder and Metrics may be
// nil; the matching features degrade quietly.
type Deps struct {
	Transport Messenger
	Sessions  *SessionManager
	Collector wordstat.Source
	Mock      wordstat.Source
	Clusterer cluster.Clusterer
	Generator AdGenerator
	Scraper   SiteFetcher
	LLM       cluster.Completer
	Exporter  BundleExporter
	Recorder  Recorder
	Metrics   *services.Metrics
}

// Engine is the conversation state machine. One session per chat, one
// pipeline per session, no terminal state.
type Engine struct {
	deps Deps
}

// NewEngine creates the conversation engine.
func NewEngine(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// HandleUpdate dispatches one inbound update. Long-running work is detached
// onto the session's pipeline context; this method itself returns quickly so
// the webhook can be acknowledged.
func (e *Engine) HandleUpdate(ctx context.Context, update *Update) {
	if e.deps.Metrics != nil {
		e.deps.Metrics.RecordUpdate()
	}

	switch {
	case update.Message != nil:
		e.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		e.handleCallback(ctx, update.CallbackQuery)
	}
}

func (e *Engine) handleMessage(ctx context.Context, msg *Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	chatID := msg.Chat.ID
	session := e.deps.Sessions.Get(chatID)
	session.Lock()
	defer session.Unlock()

	if text == "/start" {
		log.Printf("👋 [BOT] /start from chat %d", chatID)
		session.Reset()
		e.send(ctx, chatID, greeting, MainKeyboard())
		return
	}

	// Only /start interrupts a running pipeline. Mode buttons arrive as plain
	// messages and must not flip the session out of Processing.
	if session.State == models.StateProcessing {
		e.send(ctx, chatID, "⏳ Кампания уже собирается. Отправьте /start, чтобы отменить и начать заново.", nil)
		return
	}

	switch text {
	case BtnCollect:
		session.State = models.StateAwaitingKeyword
		e.send(ctx, chatID, "Введите базовый запрос (маску), по которому будем парсить Wordstat:", nil)
		return
	case BtnList:
		session.State = models.StateAwaitingList
		e.send(ctx, chatID, "Пришлите список фраз (каждая с новой строки), для которых нужно написать объявления:", nil)
		return
	case BtnAnalyze:
		session.State = models.StateAwaitingURL
		e.send(ctx, chatID, "Отправьте ссылку на сайт (landing page), который нужно проанализировать:", nil)
		return
	}

	switch session.State {
	case models.StateAwaitingKeyword:
		e.startCollectRun(ctx, session, []string{text}, text, "collect", "")

	case models.StateAwaitingList:
		phrases := splitList(text)
		if len(phrases) == 0 {
			e.send(ctx, chatID, "Список пуст.", nil)
			return
		}
		e.startListRun(ctx, session, phrases)

	case models.StateAwaitingURL:
		if err := scraper.ValidateURL(text); err != nil {
			e.send(ctx, chatID, "Пожалуйста, отправьте корректную ссылку (начинается с http/https).", nil)
			return
		}
		statusID := e.send(ctx, chatID, "⏳ Читаю содержимое сайта...", nil)
		runCtx := session.BeginPipeline(context.Background())
		go e.runSiteAnalysis(runCtx, session, text, statusID)

	case models.StateAwaitingManualContent:
		if len(text) < minManualContent {
			e.send(ctx, chatID, "Текст слишком короткий. Попробуйте скопировать больше контента.", nil)
			return
		}
		statusID := e.send(ctx, chatID, "✅ Текст получен!\n🧠 Анализирую контент...", nil)
		runCtx := session.BeginPipeline(context.Background())
		go e.runSeedSuggestion(runCtx, session, text, statusID)

	case models.StateAwaitingSeedSelection:
		e.send(ctx, chatID, "Выберите маски кнопками выше или отправьте /start для сброса.", nil)
	}
}

func (e *Engine) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	session := e.deps.Sessions.Get(chatID)
	session.Lock()
	defer session.Unlock()

	switch {
	case strings.HasPrefix(cb.Data, cbSeedTogglePrefix):
		if session.State != models.StateAwaitingSeedSelection {
			// Stale keyboard from a previous run.
			e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "")
			return
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(cb.Data, cbSeedTogglePrefix))
		if err != nil || idx < 0 || idx >= len(session.Seeds) {
			e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "")
			return
		}
		session.ToggleSeed(session.Seeds[idx])
		if err := e.deps.Transport.EditMessageReplyMarkup(ctx, chatID, session.SeedMessageID,
			SeedKeyboard(session.Seeds, session.Selected)); err != nil {
			log.Printf("⚠️ [BOT] Failed to update seed keyboard: %v", err)
		}
		e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "")

	case cb.Data == cbSeedConfirm:
		if session.State != models.StateAwaitingSeedSelection {
			e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "")
			return
		}
		selected := session.SelectedSeeds()
		if len(selected) == 0 {
			e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "Выберите хотя бы один вариант!")
			return
		}
		e.deps.Transport.AnswerCallbackQuery(ctx, cb.ID, "")
		e.deps.Transport.DeleteMessage(ctx, chatID, session.SeedMessageID)
		e.startCollectRun(ctx, session, selected, strings.Join(selected, ", "), "analyze", session.SiteContext)
	}
}

// startCollectRun launches the report-service path. Caller holds the session
// lock.
func (e *Engine) startCollectRun(ctx context.Context, session *models.Session, seeds []string, campaign, source, siteContext string) {
	statusID := e.send(ctx, session.ChatID,
		fmt.Sprintf("🚀 Начинаю работу по запросу: '%s'...\n⏳ Сбор семантики из Wordstat...", campaign), nil)
	runCtx := session.BeginPipeline(context.Background())
	go e.runCollect(runCtx, session, seeds, campaign, source, siteContext, statusID)
}

// startListRun launches the pasted-list path, which skips collection
// entirely. Caller holds the session lock.
func (e *Engine) startListRun(ctx context.Context, session *models.Session, phrases []string) {
	stats := make([]models.PhraseStat, 0, len(phrases))
	for _, p := range phrases {
		stats = append(stats, models.PhraseStat{Phrase: p})
	}

	statusID := e.send(ctx, session.ChatID,
		fmt.Sprintf("✅ Принято %d фраз.\n🧠 Кластеризация и группировка...", len(stats)), nil)
	runCtx := session.BeginPipeline(context.Background())
	go e.runPipeline(runCtx, session, stats, "Ручной список", "list", "", statusID, false, false, time.Now())
}

func (e *Engine) runCollect(ctx context.Context, session *models.Session, seeds []string, campaign, source, siteContext string, statusID int64) {
	start := time.Now()
	chatID := session.ChatID
	mockUsed := false

	stats, err := e.deps.Collector.CollectSemantics(ctx, seeds)
	if err != nil {
		if ctx.Err() != nil {
			e.finish(ctx, session, source, "cancelled", start)
			return
		}
		log.Printf("⚠️ [BOT] Semantics collection failed, falling back to mock: %v", err)
		e.recordStageError("collect")
		if e.deps.Metrics != nil {
			e.deps.Metrics.RecordMockFallback()
		}
		e.edit(ctx, chatID, statusID, "⚠️ Ошибка API (нет доступа).\n🔄 Использую тестовые данные (Mock)...")
		mockUsed = true
		stats, err = e.deps.Mock.CollectSemantics(ctx, seeds)
		if err != nil {
			e.finish(ctx, session, source, "cancelled", start)
			return
		}
	}

	if len(stats) == 0 {
		e.edit(ctx, chatID, statusID, "❌ Не удалось собрать данные (или пусто, или ошибка API).")
		e.finish(ctx, session, source, "error", start)
		return
	}

	e.runPipeline(ctx, session, stats, campaign, source, siteContext, statusID, mockUsed, true, start)
}

// runPipeline clusters, generates, exports, and delivers. Shared by all three
// entry paths.
func (e *Engine) runPipeline(ctx context.Context, session *models.Session, stats []models.PhraseStat, campaign, source, siteContext string, statusID int64, mockUsed, hasStats bool, start time.Time) {
	chatID := session.ChatID

	showsByPhrase := make(map[string]int, len(stats))
	phrases := make([]string, 0, len(stats))
	for _, s := range stats {
		if _, seen := showsByPhrase[s.Phrase]; seen {
			continue
		}
		showsByPhrase[s.Phrase] = s.Shows
		phrases = append(phrases, s.Phrase)
	}

	e.edit(ctx, chatID, statusID, fmt.Sprintf("✅ Принято %d фраз.\n🧠 Кластеризация и группировка...", len(phrases)))

	clusters, err := e.deps.Clusterer.Cluster(ctx, phrases, 0)
	if err != nil {
		if ctx.Err() != nil {
			e.finish(ctx, session, source, "cancelled", start)
			return
		}
		e.recordStageError("cluster")
		e.edit(ctx, chatID, statusID, "❌ Ошибка кластеризации.")
		e.finish(ctx, session, source, "error", start)
		return
	}

	e.edit(ctx, chatID, statusID,
		fmt.Sprintf("✅ Кластеризовано на %d групп.\n✍️ Написание объявлений (это может занять время)...", len(clusters)))

	var groups []models.AdGroup
	for i, cl := range clusters {
		if i%2 == 0 {
			e.edit(ctx, chatID, statusID, fmt.Sprintf("✍️ Пишу объявления: %d/%d...", i+1, len(clusters)))
		}

		ads, err := e.deps.Generator.Generate(ctx, cl, siteContext)
		if err != nil {
			if ctx.Err() != nil {
				e.finish(ctx, session, source, "cancelled", start)
				return
			}
			e.recordStageError("adcopy")
			e.edit(ctx, chatID, statusID, "❌ Не удалось сгенерировать объявления.")
			e.finish(ctx, session, source, "error", start)
			return
		}
		if len(ads) == 0 {
			// A cluster without ads would export blank rows; drop it.
			log.Printf("⚠️ [BOT] Dropping cluster %q: no ads generated", cl.Name)
			e.recordStageError("adcopy")
			continue
		}

		keywords := make([]models.PhraseStat, 0, len(cl.Phrases))
		for _, p := range cl.Phrases {
			keywords = append(keywords, models.PhraseStat{Phrase: p, Shows: showsByPhrase[p]})
		}
		groups = append(groups, models.AdGroup{Name: cl.Name, Keywords: keywords, Ads: ads})
	}

	if len(groups) == 0 {
		e.edit(ctx, chatID, statusID, "❌ Не удалось сгенерировать объявления.")
		e.finish(ctx, session, source, "error", start)
		return
	}

	bundle := models.CampaignBundle{Name: campaign, Groups: groups, HasStats: hasStats}

	e.edit(ctx, chatID, statusID, "✅ Объявления готовы.\n📊 Генерирую Excel файл и Google Таблицу...")

	result, err := e.deps.Exporter.Export(ctx, bundle)
	if err != nil {
		if ctx.Err() != nil {
			e.finish(ctx, session, source, "cancelled", start)
			return
		}
		e.recordStageError("export")
		e.edit(ctx, chatID, statusID, "❌ Ошибка при создании файлов.")
		e.finish(ctx, session, source, "error", start)
		return
	}

	e.deps.Transport.DeleteMessage(ctx, chatID, statusID)
	e.deliver(ctx, chatID, result, mockUsed)
	e.record(&bundle, source, result, mockUsed)
	e.finish(ctx, session, source, "success", start)
}

// runSiteAnalysis fetches the landing page and hands off to seed suggestion.
// A failed fetch drops the chat into manual-content mode instead of failing.
func (e *Engine) runSiteAnalysis(ctx context.Context, session *models.Session, url string, statusID int64) {
	chatID := session.ChatID

	var text string
	var err error
	if e.deps.Scraper != nil {
		text, err = e.deps.Scraper.FetchText(ctx, url)
	} else {
		err = fmt.Errorf("scraper not configured")
	}
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		log.Printf("⚠️ [BOT] Site fetch failed for %s: %v", url, err)
		e.recordStageError("scrape")
		e.edit(ctx, chatID, statusID,
			"⚠️ Не удалось автоматически прочитать сайт (защита от ботов).\n"+
				"Пожалуйста, **скопируйте текст** с вашего лендинга (Ctrl+A -> Ctrl+C) и отправьте его сюда сообщением.")
		session.Lock()
		session.EndPipeline()
		session.State = models.StateAwaitingManualContent
		session.Unlock()
		return
	}

	e.edit(ctx, chatID, statusID, "🧠 Анализирую контент и подбираю ключевые слова...")
	e.runSeedSuggestion(ctx, session, text, statusID)
}

// runSeedSuggestion turns page text into seed candidates and shows the
// selection keyboard.
func (e *Engine) runSeedSuggestion(ctx context.Context, session *models.Session, siteText string, statusID int64) {
	chatID := session.ChatID

	content, err := e.deps.LLM.Complete(ctx, llm.PPCPersona, llm.BuildSeedPrompt(siteText))
	if ctx.Err() != nil {
		return
	}

	var seeds []string
	if err == nil {
		seeds = llm.ParsePhrases(content)
	}
	if len(seeds) == 0 {
		e.recordStageError("seeds")
		e.edit(ctx, chatID, statusID, "❌ Не удалось сгенерировать ключевые слова.")
		session.Lock()
		session.EndPipeline()
		session.Unlock()
		return
	}

	session.Lock()
	session.EndPipeline()
	session.SetSiteContext(siteText)
	session.SetSeeds(seeds)
	session.State = models.StateAwaitingSeedSelection
	session.SeedMessageID = statusID
	session.Unlock()

	e.deps.Transport.EditMessageText(ctx, chatID, statusID,
		fmt.Sprintf("✅ Анализ завершен!\nНайдено %d тем. Выберите маски для сбора (можно несколько):", len(seeds)),
		SeedKeyboard(seeds, nil))
}

// deliver sends the finished artifacts to the chat.
func (e *Engine) deliver(ctx context.Context, chatID int64, result models.ExportResult, mockUsed bool) {
	caption := "🎉 Ваша рекламная кампания готова!"
	if result.SheetURL != "" {
		caption += fmt.Sprintf("\n\n🔗 [Google Таблица под Direct Commander](%s)", result.SheetURL)
	}
	if mockUsed {
		caption += "\n\n⚠️ Использованы тестовые данные (Mock)."
	}

	if result.FilePath != "" {
		if err := e.deps.Transport.SendDocument(ctx, chatID, result.FilePath, caption); err != nil {
			log.Printf("❌ [BOT] Failed to send document: %v", err)
			e.send(ctx, chatID, caption, nil)
		}
		return
	}
	e.send(ctx, chatID, caption, nil)
}

// record persists the run. History is advisory, failures only log.
func (e *Engine) record(bundle *models.CampaignBundle, source string, result models.ExportResult, mockUsed bool) {
	if e.deps.Recorder == nil {
		return
	}

	rows := 0
	for _, g := range bundle.Groups {
		rows += len(g.Keywords)
	}

	run := &models.CampaignRun{
		ID:       uuid.New().String(),
		Campaign: bundle.Name,
		Source:   source,
		Phrases:  bundle.TotalKeywords(),
		Groups:   len(bundle.Groups),
		Rows:     rows,
		FilePath: result.FilePath,
		SheetURL: result.SheetURL,
		MockData: mockUsed,
	}

	recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.deps.Recorder.InsertCampaignRun(recCtx, run); err != nil {
		log.Printf("⚠️ [BOT] Failed to record campaign run: %v", err)
	}
}

// finish closes out a pipeline run. Cancelled runs leave the session alone:
// the reset that cancelled them already put it where the user asked.
func (e *Engine) finish(ctx context.Context, session *models.Session, source, status string, start time.Time) {
	if e.deps.Metrics != nil {
		e.deps.Metrics.RecordPipelineRun(source, status, time.Since(start).Seconds())
	}
	if ctx.Err() != nil {
		log.Printf("🛑 [BOT] Pipeline cancelled for chat %d", session.ChatID)
		return
	}
	session.Lock()
	session.EndPipeline()
	session.Unlock()
	log.Printf("🏁 [BOT] Pipeline finished for chat %d: %s (%.1fs)", session.ChatID, status, time.Since(start).Seconds())
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, keyboard interface{}) int64 {
	id, err := e.deps.Transport.SendMessage(ctx, chatID, text, keyboard)
	if err != nil {
		log.Printf("❌ [BOT] Failed to send message to chat %d: %v", chatID, err)
	}
	return id
}

func (e *Engine) edit(ctx context.Context, chatID, messageID int64, text string) {
	if err := e.deps.Transport.EditMessageText(ctx, chatID, messageID, text, nil); err != nil && ctx.Err() == nil {
		log.Printf("⚠️ [BOT] Failed to edit status message: %v", err)
	}
}

func (e *Engine) recordStageError(stage string) {
	if e.deps.Metrics != nil {
		e.deps.Metrics.RecordStageError(stage)
	}
}

// splitList breaks pasted text into phrases, one per line, commas also
// accepted.
func splitList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ','
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
