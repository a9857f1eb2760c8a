package synth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testPolicy(maxAttempts int) PollPolicy {
	return PollPolicy{
		Interval:    time.Millisecond,
		MaxAttempts: maxAttempts,
		Sleep:       noSleep,
	}
}

type fakeProvider struct {
	t          *testing.T
	statuses   []string // one per poll, last one repeats
	audioURL   string
	polls      int
	lastTags   string
	lastGender string
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/custom_generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("bad generate body: %v", err)
		}
		f.lastTags, _ = body["tags"].(string)
		f.lastGender, _ = body["vocal_gender"].(string)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"msg":  "ok",
			"data": map[string]string{"taskId": "task-1"},
		})
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		idx := f.polls
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		f.polls++
		status := f.statuses[idx]

		audio := ""
		if status == "complete" {
			audio = f.audioURL
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"msg":  "ok",
			"data": []map[string]interface{}{
				{"id": "task-1", "status": status, "audio_url": audio, "duration": 182.0},
			},
		})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider, maxAttempts int) *Client {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(&Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Poll:    testPolicy(maxAttempts),
	})
}

func TestGenerateSuccessAfterProcessing(t *testing.T) {
	f := &fakeProvider{
		t:        t,
		statuses: []string{"queued", "processing", "complete"},
		audioURL: "https://cdn.example/song.mp3",
	}
	c := newTestClient(t, f, 10)

	result, err := c.Generate(context.Background(), &Request{
		Lyrics:     "I am capable",
		StyleTags:  "soul, warm female voice",
		GenderCode: "f",
		Title:      "Capable",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.AudioURL != "https://cdn.example/song.mp3" {
		t.Errorf("AudioURL = %q", result.AudioURL)
	}
	if f.polls != 3 {
		t.Errorf("polls = %d, want 3", f.polls)
	}
	if f.lastTags != "soul, warm female voice" {
		t.Errorf("tags = %q", f.lastTags)
	}
	if f.lastGender != "f" {
		t.Errorf("vocal_gender = %q", f.lastGender)
	}
}

func TestGenerateExplicitFailure(t *testing.T) {
	f := &fakeProvider{t: t, statuses: []string{"processing", "error"}}
	c := newTestClient(t, f, 10)

	_, err := c.Generate(context.Background(), &Request{Lyrics: "x", StyleTags: "pop"})
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("want ErrJobFailed, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("explicit failure must not look like a timeout")
	}
}

func TestGenerateTimeoutAfterCeiling(t *testing.T) {
	f := &fakeProvider{t: t, statuses: []string{"processing"}}
	c := newTestClient(t, f, 5)

	_, err := c.Generate(context.Background(), &Request{Lyrics: "x", StyleTags: "pop"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if f.polls != 5 {
		t.Errorf("polls = %d, want exactly the ceiling 5", f.polls)
	}
}

func TestGenerateUnknownStatusKeepsPolling(t *testing.T) {
	// Statuses the client has never heard of must be treated as
	// "still processing".
	f := &fakeProvider{
		t:        t,
		statuses: []string{"submitted", "rendering", "almost_there", "complete"},
		audioURL: "https://cdn.example/a.mp3",
	}
	c := newTestClient(t, f, 10)

	result, err := c.Generate(context.Background(), &Request{Lyrics: "x", StyleTags: "pop"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.AudioURL == "" {
		t.Error("expected audio URL")
	}
	if f.polls != 4 {
		t.Errorf("polls = %d, want 4", f.polls)
	}
}

func TestBuildStyleTags(t *testing.T) {
	tests := []struct {
		genre, rhythm, gender, style string
		want                         string
	}{
		{"soul", "", "female", "warm", "soul, warm female voice"},
		{"hip-hop", "boom-bap", "male", "gritty", "hip-hop, boom-bap, gritty male voice"},
		{"pop", "", "male", "", "pop, male voice"},
		{"blues", "", "", "soulful", "blues, soulful vocals"},
		{"reggae", "", "", "", "reggae"},
	}

	for _, tc := range tests {
		got := BuildStyleTags(tc.genre, tc.rhythm, tc.gender, tc.style)
		if got != tc.want {
			t.Errorf("BuildStyleTags(%q, %q, %q, %q) = %q, want %q",
				tc.genre, tc.rhythm, tc.gender, tc.style, got, tc.want)
		}
	}
}

func TestGenderCode(t *testing.T) {
	if GenderCode("male") != "m" || GenderCode("female") != "f" || GenderCode("") != "" {
		t.Error("gender code mapping mismatch")
	}
}

func TestNewClientDefaultsPollFieldsIndependently(t *testing.T) {
	slept := false
	sleep := func(ctx context.Context, d time.Duration) error {
		slept = true
		return nil
	}

	// Only MaxAttempts unset: the custom interval and sleep must survive.
	c := NewClient(&Config{
		BaseURL: "http://localhost",
		Poll:    PollPolicy{Interval: 5 * time.Millisecond, Sleep: sleep},
	})
	if c.poll.Interval != 5*time.Millisecond {
		t.Errorf("interval = %v, want the caller's 5ms", c.poll.Interval)
	}
	if c.poll.MaxAttempts != 120 {
		t.Errorf("max attempts = %d, want default 120", c.poll.MaxAttempts)
	}
	if err := c.poll.sleep(context.Background(), time.Millisecond); err != nil || !slept {
		t.Error("caller-supplied sleep was discarded")
	}

	// Only Interval unset.
	c = NewClient(&Config{BaseURL: "http://localhost", Poll: PollPolicy{MaxAttempts: 7}})
	if c.poll.Interval != 3*time.Second {
		t.Errorf("interval = %v, want default 3s", c.poll.Interval)
	}
	if c.poll.MaxAttempts != 7 {
		t.Errorf("max attempts = %d, want the caller's 7", c.poll.MaxAttempts)
	}
}
