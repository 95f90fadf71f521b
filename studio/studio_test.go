package studio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"github.com/atlas-moltbot/vitrine-de-imagens/library"
	"github.com/atlas-moltbot/vitrine-de-imagens/region"
	"github.com/atlas-moltbot/vitrine-de-imagens/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	capability vitrine.Capability
	request    vitrine.Request
}

// fakeExecutor answers each capability from a script.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []call
	answers map[vitrine.Capability]func(req vitrine.Request) (string, error)
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{answers: make(map[vitrine.Capability]func(vitrine.Request) (string, error))}
}

func (f *fakeExecutor) on(c vitrine.Capability, body string) {
	f.answers[c] = func(vitrine.Request) (string, error) { return body, nil }
}

func (f *fakeExecutor) fail(c vitrine.Capability, err error) {
	f.answers[c] = func(vitrine.Request) (string, error) { return "", err }
}

func (f *fakeExecutor) Execute(_ context.Context, c vitrine.Capability, req vitrine.Request) (*client.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{capability: c, request: req})
	answer, ok := f.answers[c]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no answer scripted for %s", c)
	}
	body, err := answer(req)
	if err != nil {
		return nil, err
	}
	return &client.Response{Capability: c, Model: "test-model", StatusCode: http.StatusOK, Body: json.RawMessage(body)}, nil
}

func (f *fakeExecutor) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func textBody(text string) string {
	b, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + string(b) + `}]}}]}`
}

func imageBody(data []byte) string {
	return `{"predictions":[{"bytesBase64Encoded":"` + base64.StdEncoding.EncodeToString(data) + `","mimeType":"image/png"}]}`
}

func testImage() *vitrine.Image {
	return &vitrine.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
}

func newService(t *testing.T, exec Executor, store library.Store, sp vitrine.SettingsProvider) *Service {
	t.Helper()
	s, err := New(Config{
		Executor: exec,
		Library:  store,
		Settings: sp,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s
}

func contentOf(t *testing.T, c call) *vitrine.ContentRequest {
	t.Helper()
	req, ok := c.request.(*vitrine.ContentRequest)
	require.True(t, ok, "want content request, got %T", c.request)
	return req
}

func imageReqOf(t *testing.T, c call) *vitrine.ImageRequest {
	t.Helper()
	req, ok := c.request.(*vitrine.ImageRequest)
	require.True(t, ok, "want image request, got %T", c.request)
	return req
}

func TestNewRequiresExecutor(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityVisionAnalyze, textBody(`{"description":"Tênis branco","objects":["tênis"],"mood":"Alegre","lighting":"Natural","colors":["branco"]}`))
	s := newService(t, exec, nil, nil)

	got, err := s.Analyze(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, &vitrine.AnalysisResult{
		Description: "Tênis branco",
		Objects:     []string{"tênis"},
		Mood:        "Alegre",
		Lighting:    "Natural",
		Colors:      []string{"branco"},
	}, got)

	calls := exec.recorded()
	require.Len(t, calls, 1)
	req := contentOf(t, calls[0])
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
	assert.InDelta(t, 0.2, *req.GenerationConfig.Temperature, 1e-6)
	parts := req.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind vitrine.Kind
	}{
		{"empty text", textBody(""), vitrine.KindGeneric},
		{"invalid json", textBody("não é json"), vitrine.KindGeneric},
		{"blocked", `{"promptFeedback":{"blockReason":"SAFETY"}}`, vitrine.KindContentBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			exec.on(vitrine.CapabilityVisionAnalyze, tt.body)
			s := newService(t, exec, nil, nil)

			_, err := s.Analyze(context.Background(), testImage())
			require.Error(t, err)
			assert.Equal(t, tt.kind, vitrine.KindOf(err))
		})
	}

	t.Run("no image", func(t *testing.T) {
		s := newService(t, newFakeExecutor(), nil, nil)
		_, err := s.Analyze(context.Background(), nil)
		assert.ErrorIs(t, err, vitrine.ErrEmptyInput)
	})

	t.Run("classified error passes through", func(t *testing.T) {
		exec := newFakeExecutor()
		exec.fail(vitrine.CapabilityVisionAnalyze, vitrine.NewError(vitrine.KindQuota, 429, nil))
		s := newService(t, exec, nil, nil)
		_, err := s.Analyze(context.Background(), testImage())
		assert.True(t, vitrine.IsQuota(err))
	})
}

func TestUnreadableAnswerIsClassified(t *testing.T) {
	const html = `<html>502 Bad Gateway</html>`
	badBase64 := `{"predictions":[{"bytesBase64Encoded":"%%%","mimeType":"image/png"}]}`

	tests := []struct {
		name string
		cap  vitrine.Capability
		body string
		run  func(s *Service) error
	}{
		{
			name: "ask",
			cap:  vitrine.CapabilityFastUtility,
			body: html,
			run: func(s *Service) error {
				_, err := s.Ask(context.Background(), "oi")
				return err
			},
		},
		{
			name: "analyze",
			cap:  vitrine.CapabilityVisionAnalyze,
			body: html,
			run: func(s *Service) error {
				_, err := s.Analyze(context.Background(), testImage())
				return err
			},
		},
		{
			name: "edit",
			cap:  vitrine.CapabilityImageEdit,
			body: html,
			run: func(s *Service) error {
				_, err := s.Edit(context.Background(), testImage(), "trocar fundo", nil)
				return err
			},
		},
		{
			name: "edit with bad image data",
			cap:  vitrine.CapabilityImageEdit,
			body: badBase64,
			run: func(s *Service) error {
				_, err := s.Edit(context.Background(), testImage(), "trocar fundo", nil)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			exec.on(tt.cap, tt.body)
			s := newService(t, exec, nil, nil)

			err := tt.run(s)
			require.Error(t, err)
			assert.Equal(t, vitrine.KindGeneric, vitrine.KindOf(err))
		})
	}
}

func TestDetectObjects(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityVisionSegment, textBody("```json\n[{\"point\":[500,250],\"label\":\"garrafa\"}]\n```"))
	s := newService(t, exec, nil, nil)

	points, err := s.DetectObjects(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, []vitrine.DetectedPoint{{Point: [2]int{500, 250}, Label: "garrafa"}}, points)
}

func TestSegment(t *testing.T) {
	cutout := []byte("cutout")
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityVisionSegment, `{"candidates":[{"content":{"parts":[{"text":"aqui"},{"inlineData":{"mimeType":"image/png","data":"`+base64.StdEncoding.EncodeToString(cutout)+`"}}]}}]}`)
	s := newService(t, exec, nil, nil)

	img, err := s.Segment(context.Background(), testImage(), "garrafa")
	require.NoError(t, err)
	assert.Equal(t, cutout, img.Data)

	req := contentOf(t, exec.recorded()[0])
	assert.Contains(t, req.Contents[0].Parts[1].Text, `Segment the object "garrafa"`)

	t.Run("no image part", func(t *testing.T) {
		exec := newFakeExecutor()
		exec.on(vitrine.CapabilityVisionSegment, textBody("não consegui"))
		s := newService(t, exec, nil, nil)
		_, err := s.Segment(context.Background(), testImage(), "garrafa")
		assert.Equal(t, vitrine.KindGeneric, vitrine.KindOf(err))
		assert.ErrorIs(t, err, ErrNoResult)
	})

	t.Run("empty label", func(t *testing.T) {
		_, err := s.Segment(context.Background(), testImage(), "  ")
		assert.ErrorIs(t, err, vitrine.ErrEmptyInput)
	})
}

func TestEdit(t *testing.T) {
	edited := []byte("edited")
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityImageEdit, imageBody(edited))
	store := library.NewMemoryStore()
	s := newService(t, exec, store, nil)

	r := region.Region{100, 100, 475, 350}
	img, err := s.Edit(context.Background(), testImage(), "trocar fundo", &r)
	require.NoError(t, err)
	assert.Equal(t, edited, img.Data)

	req := imageReqOf(t, exec.recorded()[0])
	require.Len(t, req.Instances, 1)
	assert.Equal(t, "trocar fundo [Region: 100, 100, 475, 350]", req.Instances[0].Prompt)
	require.NotNil(t, req.Instances[0].Image)
	assert.Equal(t, testImage().Base64(), req.Instances[0].Image.BytesBase64Encoded)
	assert.Equal(t, 1, req.Parameters.SampleCount)

	s.Wait()
	items, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, vitrine.ItemEdited, items[0].Type)
	assert.Equal(t, "trocar fundo", items[0].Prompt)
	assert.Equal(t, img.DataURL(), items[0].URL)
}

func TestEditValidation(t *testing.T) {
	s := newService(t, newFakeExecutor(), nil, nil)

	_, err := s.Edit(context.Background(), testImage(), " ", nil)
	assert.ErrorIs(t, err, vitrine.ErrEmptyInput)

	bad := region.Region{500, 0, 100, 1000}
	_, err = s.Edit(context.Background(), testImage(), "x", &bad)
	assert.Error(t, err)
}

func TestEditPrompt(t *testing.T) {
	assert.Equal(t, "p", EditPrompt("p", nil))
	r := region.Region{0, 0, 1000, 1000}
	assert.Equal(t, "p [Region: 0, 0, 1000, 1000]", EditPrompt("p", &r))
}

func TestEditBlocked(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityImageEdit, `{"predictions":[{"raiFilteredReason":"child"}]}`)
	store := library.NewMemoryStore()
	s := newService(t, exec, store, nil)

	_, err := s.Edit(context.Background(), testImage(), "x", nil)
	assert.True(t, vitrine.IsContentBlocked(err))
	s.Wait()
	assert.Equal(t, 0, store.Len())
}

func TestGenerateTranslatesFirst(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, textBody(" A sneaker on the beach \n"))
	exec.on(vitrine.CapabilityImageGenerate, imageBody([]byte("gen")))
	store := library.NewMemoryStore()
	s := newService(t, exec, store, nil)

	img, err := s.Generate(context.Background(), "um tênis na praia", vitrine.AspectRatio16x9)
	require.NoError(t, err)
	assert.Equal(t, []byte("gen"), img.Data)

	calls := exec.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, vitrine.CapabilityFastUtility, calls[0].capability)
	assert.Contains(t, contentOf(t, calls[0]).Contents[0].Parts[0].Text, `"um tênis na praia"`)

	req := imageReqOf(t, calls[1])
	assert.Equal(t, "A sneaker on the beach", req.Instances[0].Prompt)
	assert.Nil(t, req.Instances[0].Image)
	assert.Equal(t, "16:9", req.Parameters.AspectRatio)

	s.Wait()
	items, _ := store.List(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, vitrine.ItemGenerated, items[0].Type)
	assert.Equal(t, "um tênis na praia", items[0].Prompt)
}

func TestGenerateTranslationFallback(t *testing.T) {
	exec := newFakeExecutor()
	exec.fail(vitrine.CapabilityFastUtility, vitrine.NewError(vitrine.KindNetwork, 0, context.DeadlineExceeded))
	exec.on(vitrine.CapabilityImageGenerate, imageBody([]byte("gen")))
	s := newService(t, exec, nil, nil)

	_, err := s.Generate(context.Background(), "um gato", "")
	require.NoError(t, err)

	req := imageReqOf(t, exec.recorded()[1])
	assert.Equal(t, "um gato", req.Instances[0].Prompt)
	assert.Equal(t, "1:1", req.Parameters.AspectRatio)
}

func TestGenerateNoImage(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, textBody("a cat"))
	exec.on(vitrine.CapabilityImageGenerate, `{"predictions":[]}`)
	s := newService(t, exec, nil, nil)

	_, err := s.Generate(context.Background(), "um gato", "")
	assert.Equal(t, vitrine.KindGeneric, vitrine.KindOf(err))
	assert.ErrorIs(t, err, client.ErrNoImage)
}

// failingStore always rejects saves.
type failingStore struct{ library.Store }

func (failingStore) Save(context.Context, vitrine.LibraryItem) error {
	return errors.New("Database Connection Failed")
}

func TestLibraryFailureIsNotSurfaced(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityImageEdit, imageBody([]byte("edited")))
	s := newService(t, exec, failingStore{}, nil)

	img, err := s.Edit(context.Background(), testImage(), "x", nil)
	require.NoError(t, err)
	assert.NotNil(t, img)
	s.Wait()
}

func TestLibraryOfferSurvivesCanceledContext(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityImageEdit, imageBody([]byte("edited")))
	store := library.NewMemoryStore()
	s := newService(t, exec, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Edit(ctx, testImage(), "x", nil)
	require.NoError(t, err)
	cancel()
	s.Wait()
	assert.Equal(t, 1, store.Len())
}

func TestTranslate(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, textBody("Olá mundo"))
	s := newService(t, exec, nil, nil)

	assert.Equal(t, "Olá mundo", s.TranslateToPortuguese(context.Background(), "Hello world"))
	assert.Equal(t, "", s.TranslateToEnglish(context.Background(), ""))
	assert.Len(t, exec.recorded(), 1)

	empty := newFakeExecutor()
	empty.on(vitrine.CapabilityFastUtility, textBody(""))
	s = newService(t, empty, nil, nil)
	assert.Equal(t, "gato", s.TranslateToEnglish(context.Background(), "gato"))
}

func TestAsk(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, textBody("Use luz lateral."))
	s := newService(t, exec, nil, nil)

	got, err := s.Ask(context.Background(), "Como iluminar vidro?")
	require.NoError(t, err)
	assert.Equal(t, "Use luz lateral.", got)

	_, err = s.Ask(context.Background(), "")
	assert.ErrorIs(t, err, vitrine.ErrEmptyInput)

	empty := newFakeExecutor()
	empty.on(vitrine.CapabilityFastUtility, `{"candidates":[]}`)
	s = newService(t, empty, nil, nil)
	got, err = s.Ask(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, noAnswer, got)
}

func TestDescribe(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, textBody("Tênis leve e confortável."))
	s := newService(t, exec, nil, nil)

	got, err := s.Describe(context.Background(), testImage(), "")
	require.NoError(t, err)
	assert.Equal(t, "Tênis leve e confortável.", got)
	req := contentOf(t, exec.recorded()[0])
	assert.Equal(t, DefaultDescribePrompt, req.Contents[0].Parts[1].Text)
}

func TestSearch(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(vitrine.CapabilityFastUtility, `{"candidates":[{"content":{"parts":[{"text":"Tendência: tons terrosos."}]},
		"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://a.example","title":"A"}},{"retrievedContext":{}},{"web":{"uri":"https://b.example"}}]}}]}`)
	s := newService(t, exec, nil, nil)

	got, err := s.Search(context.Background(), "tendências de fotografia de produto")
	require.NoError(t, err)
	assert.Equal(t, "Tendência: tons terrosos.", got.Text)
	assert.Equal(t, []Source{{URI: "https://a.example", Title: "A"}, {URI: "https://b.example"}}, got.Sources)

	req := contentOf(t, exec.recorded()[0])
	require.Len(t, req.Tools, 1)
	assert.NotNil(t, req.Tools[0].GoogleSearch)
}

func TestChatKeepsHistory(t *testing.T) {
	exec := newFakeExecutor()
	replies := []string{"Olá! Como posso ajudar?", "Use fundo branco."}
	n := 0
	exec.answers[vitrine.CapabilityChatComplex] = func(vitrine.Request) (string, error) {
		r := replies[n]
		n++
		return textBody(r), nil
	}
	s := newService(t, exec, nil, nil)

	chat := s.NewChat("Você é o assistente do estúdio.")
	got, err := chat.Send(context.Background(), "Oi")
	require.NoError(t, err)
	assert.Equal(t, replies[0], got)

	got, err = chat.Send(context.Background(), "Qual fundo usar?", testImage())
	require.NoError(t, err)
	assert.Equal(t, replies[1], got)

	calls := exec.recorded()
	require.Len(t, calls, 2)
	second := contentOf(t, calls[1])
	require.Len(t, second.Contents, 3)
	assert.Equal(t, "user", second.Contents[0].Role)
	assert.Equal(t, "model", second.Contents[1].Role)
	assert.Equal(t, replies[0], second.Contents[1].Parts[0].Text)
	assert.Len(t, second.Contents[2].Parts, 2)
	require.NotNil(t, second.SystemInstruction)
	assert.Equal(t, "Você é o assistente do estúdio.", second.SystemInstruction.Parts[0].Text)

	assert.Len(t, chat.History(), 4)
	chat.Reset()
	assert.Empty(t, chat.History())
}

func TestChatFailureLeavesHistory(t *testing.T) {
	exec := newFakeExecutor()
	exec.fail(vitrine.CapabilityChatComplex, vitrine.NewError(vitrine.KindNetwork, 0, nil))
	s := newService(t, exec, nil, nil)

	chat := s.NewChat("")
	_, err := chat.Send(context.Background(), "Oi")
	assert.True(t, vitrine.IsNetwork(err))
	assert.Empty(t, chat.History())

	_, err = chat.Send(context.Background(), " ")
	assert.ErrorIs(t, err, vitrine.ErrEmptyInput)
}

func TestSendToAtlas(t *testing.T) {
	var got atlasMessage
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sp := settings.NewMemory(map[string]string{
		vitrine.SettingAtlasWebhook: srv.URL + "/webhook/vitrine",
		vitrine.SettingAtlasUser:    "ana",
	})
	s := newService(t, newFakeExecutor(), nil, sp)

	require.NoError(t, s.SendToAtlas(context.Background(), "gerar banner"))
	assert.Equal(t, "ana", got.User)
	assert.Equal(t, "gerar banner", got.Text)
	assert.Equal(t, atlasApp, got.App)
	assert.Equal(t, atlasContext, got.Context)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, "true", headers.Get("Bypass-Tunnel-Reminder"))
	assert.Equal(t, "true", headers.Get("ngrok-skip-browser-warning"))
	assert.Equal(t, "Vitrine-Studio", headers.Get("X-Atlas-App"))

	require.NoError(t, s.SendToAtlas(context.Background(), ""))
	assert.Equal(t, DefaultAtlasMessage, got.Text)
}

func TestSendToAtlasErrors(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		s := newService(t, newFakeExecutor(), nil, settings.NewMemory(nil))
		assert.ErrorIs(t, s.SendToAtlas(context.Background(), "x"), ErrNoWebhook)
	})
	t.Run("not http", func(t *testing.T) {
		sp := settings.NewMemory(map[string]string{vitrine.SettingAtlasWebhook: "ftp://x"})
		s := newService(t, newFakeExecutor(), nil, sp)
		assert.ErrorIs(t, s.SendToAtlas(context.Background(), "x"), ErrNoWebhook)
	})
	t.Run("workflow inactive", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"webhook not registered"}`))
		}))
		defer srv.Close()
		sp := settings.NewMemory(map[string]string{vitrine.SettingAtlasWebhook: srv.URL})
		s := newService(t, newFakeExecutor(), nil, sp)

		err := s.SendToAtlas(context.Background(), "x")
		var ae *AtlasError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, http.StatusNotFound, ae.StatusCode())
		assert.Contains(t, ae.Body, "not registered")
	})
}

func TestSlot(t *testing.T) {
	var slot Slot
	first := slot.Begin()
	assert.True(t, first.Current())
	assert.NoError(t, first.Check())

	second := slot.Begin()
	assert.False(t, first.Current())
	assert.ErrorIs(t, first.Check(), ErrSuperseded)
	assert.True(t, second.Current())

	assert.False(t, Ticket{}.Current())
}
