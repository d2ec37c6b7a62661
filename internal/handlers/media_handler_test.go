package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pexelsServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pexels-key", r.Header.Get("Authorization"))
		if r.URL.Query().Get("query") == "nothing" {
			fmt.Fprint(w, `{"photos":[]}`)
			return
		}
		fmt.Fprint(w, `{"photos":[{"src":{"large":"https://img.example/sunset.jpg"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleImageSearch(t *testing.T) {
	ctx := context.Background()
	srv := pexelsServer(t)
	m := newTestManager(t, testConfig(), services.ImageConfig{PexelsURL: srv.URL, PexelsKey: "pexels-key"})
	chat := groupChat(testGroupID)

	m.HandleImageSearch(ctx, commandMessage(chat, tgUser(1, "Asha"), "/img"), m.bot)
	assert.Equal(t, "Example: <code>/img nature</code>", m.bot.lastText(testGroupID))

	m.HandleImageSearch(ctx, commandMessage(chat, tgUser(1, "Asha"), "/img sunset"), m.bot)
	msgs := m.bot.messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "photo", last.Kind)
	assert.Equal(t, "https://img.example/sunset.jpg", last.Media)
	assert.Equal(t, "Requested: sunset", last.Text)

	m.HandleImageSearch(ctx, commandMessage(chat, tgUser(1, "Asha"), "/img sunset"), m.bot)
	assert.Contains(t, m.bot.lastText(testGroupID), "Slow down! Try /img again in")

	m.HandleImageSearch(ctx, commandMessage(chat, tgUser(2, "Ravi"), "/img nothing"), m.bot)
	assert.Equal(t, "No images found for 'nothing'.", m.bot.lastText(testGroupID))
}

func TestHandleImageSearch_Disabled(t *testing.T) {
	m := newTestManager(t, testConfig(), services.ImageConfig{})

	m.HandleImageSearch(context.Background(), commandMessage(groupChat(testGroupID), tgUser(1, "Asha"), "/img cats"), m.bot)
	assert.Equal(t, "Image search is disabled.", m.bot.lastText(testGroupID))
}

func TestHandleImageGenerate_Disabled(t *testing.T) {
	m := newTestManager(t, testConfig(), services.ImageConfig{})

	m.HandleImageGenerate(context.Background(), commandMessage(groupChat(testGroupID), tgUser(1, "Asha"), "/gen a fox"), m.bot)
	assert.Equal(t, "Image generation is disabled.", m.bot.lastText(testGroupID))
}

func TestHandleImageGenerate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate/async", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"job-9"}`)
	})
	mux.HandleFunc("/generate/check/job-9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"done":true}`)
	})
	mux.HandleFunc("/generate/status/job-9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"done":true,"generations":[{"img":"https://horde.example/fox.webp"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.StableHordeKey = "horde-key"
	m := newTestManager(t, cfg, services.ImageConfig{
		StableHordeURL: srv.URL,
		StableHordeKey: "horde-key",
		PollInterval:   time.Millisecond,
		PollTimeout:    5 * time.Second,
	})

	m.HandleImageGenerate(context.Background(), commandMessage(groupChat(testGroupID), tgUser(1, "Asha"), "/gen a red fox"), m.bot)
	m.Wait()

	msgs := m.bot.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🎨 Generating 'a red fox'...", msgs[0].Text)
	assert.Equal(t, "photo", msgs[1].Kind)
	assert.Equal(t, "https://horde.example/fox.webp", msgs[1].Media)
	assert.Equal(t, "<b>Prompt:</b> a red fox", msgs[1].Text)
	assert.Equal(t, []int{msgs[0].MessageID}, m.bot.deleted)
}

func TestHandleImageGenerate_FailureEditsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.StableHordeKey = "horde-key"
	m := newTestManager(t, cfg, services.ImageConfig{StableHordeURL: srv.URL, StableHordeKey: "horde-key"})

	m.HandleImageGenerate(context.Background(), commandMessage(groupChat(testGroupID), tgUser(1, "Asha"), "/gen anything"), m.bot)
	m.Wait()

	require.Len(t, m.bot.edits, 1)
	assert.Contains(t, m.bot.edits[0].Text, "image generation failed")
	assert.Empty(t, m.bot.deleted)
}
