package nlp

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"fair-ats-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRecognizerRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ner", r.URL.Path)
		var req nerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en_core_web_sm", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities":[{"label":"PERSON","start_char":0,"end_char":8,"text":"John Doe"}],"sentences":[]}`))
	}))
	defer server.Close()

	recognizer, err := NewHTTPRecognizer(config.NERConfig{
		ServerURL: server.URL,
		Model:     "en_core_web_sm",
	})
	require.NoError(t, err)

	entities, err := recognizer.Recognize(context.Background(), "John Doe is a software engineer.")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "PERSON", entities[0].Label)
	assert.Equal(t, 0, entities[0].StartChar)
	assert.Equal(t, 8, entities[0].EndChar)
	assert.Equal(t, "John Doe", entities[0].Text)
}

func TestHTTPRecognizerServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`model not loaded`))
	}))
	defer server.Close()

	recognizer, err := NewHTTPRecognizer(config.NERConfig{ServerURL: server.URL})
	require.NoError(t, err)

	_, err = recognizer.Recognize(context.Background(), "some text")
	assert.Error(t, err)
}

func TestHTTPRecognizerEmptyText(t *testing.T) {
	// 空文本不应触发HTTP调用
	recognizer, err := NewHTTPRecognizer(config.NERConfig{ServerURL: "http://localhost:1"})
	require.NoError(t, err)

	entities, err := recognizer.Recognize(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestBlankRecognizer(t *testing.T) {
	blank := NewBlankRecognizer()

	entities, err := blank.Recognize(context.Background(), "John Doe lives in Seattle.")
	require.NoError(t, err)
	assert.Empty(t, entities)

	sentences, err := blank.Sentences(context.Background(), "First sentence. Second one! Third?")
	require.NoError(t, err)
	require.Len(t, sentences, 3)
	assert.Contains(t, sentences[0].Text, "First sentence.")
	assert.Contains(t, sentences[1].Text, "Second one!")
	assert.Contains(t, sentences[2].Text, "Third?")
}

func TestBlankRecognizerDoesNotSplitDottedTerms(t *testing.T) {
	blank := NewBlankRecognizer()

	sentences, err := blank.Sentences(context.Background(), "Built services with Node.js and Vue.js daily.")
	require.NoError(t, err)
	require.Len(t, sentences, 1)
}

func TestNewRecognizerDegradesToBlank(t *testing.T) {
	// 探测一个不存在的地址, 应降级为空白识别器而不是报错
	recognizer := NewRecognizer(context.Background(), config.NERConfig{
		ServerURL:      "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	})
	_, isBlank := recognizer.(*BlankRecognizer)
	assert.True(t, isBlank)
}

func TestHTTPEmbedderEmbedStrings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-MiniLM-L6-v2", req.Model)

		// 故意乱序返回, 客户端应按index归位
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","embedding":[0.0,1.0],"index":1},
			{"object":"embedding","embedding":[1.0,0.0],"index":0}
		],"model":"all-MiniLM-L6-v2","usage":{"prompt_tokens":4,"total_tokens":4}}`))
	}))
	defer server.Close()

	embedder, err := NewHTTPEmbedder(config.EmbeddingConfig{
		Model:      "all-MiniLM-L6-v2",
		Dimensions: 2,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.GetDimensions())

	vectors, err := embedder.EmbedStrings(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{1.0, 0.0}, vectors[0])
	assert.Equal(t, []float64{0.0, 1.0}, vectors[1])
}

func TestHTTPEmbedderEmptyInput(t *testing.T) {
	embedder, err := NewHTTPEmbedder(config.EmbeddingConfig{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	vectors, err := embedder.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestHTTPEmbedderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"error":{"message":"input too long","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	embedder, err := NewHTTPEmbedder(config.EmbeddingConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = embedder.EmbedStrings(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input too long")
}

func TestHTTPRerankerSigmoidScale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rerank", r.URL.Path)
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Pairs, 1)

		// ms-marco风格的原始logit
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scores":[2.0]}`))
	}))
	defer server.Close()

	reranker, err := NewHTTPReranker(config.RerankerConfig{
		ServerURL:  server.URL,
		ScoreScale: ScoreScaleSigmoid,
	})
	require.NoError(t, err)

	score, err := reranker.Relevance(context.Background(), "job text", "resume text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/(1.0+math.Exp(-2.0)), score, 1e-9)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestHTTPRerankerNoneScale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scores":[0.73,0.12]}`))
	}))
	defer server.Close()

	reranker, err := NewHTTPReranker(config.RerankerConfig{
		ServerURL:  server.URL,
		ScoreScale: ScoreScaleNone,
	})
	require.NoError(t, err)

	scores, err := reranker.Scores(context.Background(), [][2]string{{"a", "b"}, {"c", "d"}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.73, 0.12}, scores)
}

func TestHTTPRerankerScoreCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scores":[0.5]}`))
	}))
	defer server.Close()

	reranker, err := NewHTTPReranker(config.RerankerConfig{ServerURL: server.URL, ScoreScale: ScoreScaleNone})
	require.NoError(t, err)

	_, err = reranker.Scores(context.Background(), [][2]string{{"a", "b"}, {"c", "d"}})
	assert.Error(t, err)
}

func TestNewHTTPRerankerInvalidScale(t *testing.T) {
	_, err := NewHTTPReranker(config.RerankerConfig{ServerURL: "http://localhost:1", ScoreScale: "linear"})
	assert.Error(t, err)
}
