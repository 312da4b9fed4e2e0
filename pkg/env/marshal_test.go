package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSection struct {
	URL string `env:"URL"`
}

type sample struct {
	Provider string        `env:"CHATBOT_LLM_PROVIDER,required"`
	TopK     int           `env:"CHATBOT_TOP_K"`
	Timeout  time.Duration `env:"CHATBOT_CALL_TIMEOUT"`
	Debug    bool          `env:"CHATBOT_DEBUG"`
	Prompt   string        `env:"CHATBOT_GREETING"`
	Skipped  string
	DB       dbSection `envPrefix:"CHATBOT_DATABASE_"`
	hidden   string    `env:"HIDDEN"`
}

func TestMarshalEnv(t *testing.T) {
	cfg := &sample{
		Provider: "ollama",
		TopK:     5,
		Timeout:  30 * time.Second,
		Prompt:   "hello there",
		Skipped:  "x",
		DB:       dbSection{URL: "postgres://localhost/app"},
		hidden:   "secret",
	}

	got, err := MarshalEnv(cfg)
	require.NoError(t, err)
	assert.Equal(t, "CHATBOT_LLM_PROVIDER=ollama\n"+
		"CHATBOT_TOP_K=5\n"+
		"CHATBOT_CALL_TIMEOUT=30s\n"+
		"CHATBOT_GREETING=\"hello there\"\n"+
		"CHATBOT_DATABASE_URL=postgres://localhost/app\n", got)
}

func TestMarshalEnv_RejectsNonPointer(t *testing.T) {
	_, err := MarshalEnv(sample{})
	assert.Error(t, err)
}

func TestMarshalEnv_Empty(t *testing.T) {
	got, err := MarshalEnv(&sample{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMerge(t *testing.T) {
	base := "# comment\nA=1\nB=2\n"
	update := "B=3\nC=4\n"

	assert.Equal(t, "A=1\nB=3\nC=4\n", Merge(base, update))
}

func TestMarshalEnv_Map(t *testing.T) {
	cfg := &struct {
		Users map[int64]int64 `env:"TELEGRAM_USERS"`
	}{Users: map[int64]int64{67890: 8, 12345: 7}}

	got, err := MarshalEnv(cfg)
	require.NoError(t, err)
	assert.Equal(t, "TELEGRAM_USERS=12345:7,67890:8\n", got)
}
