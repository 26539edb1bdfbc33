package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//vector store
	PubMedCollection        = "pubmed_abstracts"
	TrialsCollection        = "clinical_trials"
	PubMedChunkPrefix       = "pubmed"
	TrialChunkPrefix        = "trial"
	QdrantHost              = "127.0.0.1"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantConnectionTimeout = 30 * time.Second

	//embedding: gemini-embedding-001 truncated to the dimension the
	//original MiniLM knowledge base was built with
	EmbeddingDimension int32 = 384

	//retrieval
	PubMedRelevance     = 0.8
	TrialsRelevance     = 0.75
	MaxPerCollection    = 5
	FallbackExcerptLen  = 300
	TitleTruncateLen    = 200
	LLMTemperature      = 0.7
	LLMMaxTokens  int64 = 1000

	//data collection
	PubMedBaseURL         = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	ClinicalTrialsBaseURL = "https://clinicaltrials.gov/api/v2/studies"
	CollectorUserAgent    = "Pharma-Intellect/1.0"
	SearchTimeout         = 10 * time.Second
	FetchTimeout          = 15 * time.Second

	ArticlesCSV = "data/pubmed_data.csv"
	TrialsCSV   = "data/clinical_trials_data.csv"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	RedisJobStore     = 0
	RedisHistoryStore = 1
	RedisPassword     = ""

	RedisJobStoreTTL     = 24 * time.Hour
	RedisHistoryStoreTTL = 24 * time.Hour

	NoAuthBypass = true
	AuthToken    = ""
)

// Settings are the externally supplied knobs. Defaults mirror the
// original knowledge-base build; every field can be overridden from the
// environment via Load.
type Settings struct {
	EmbeddingModel string
	LLMModel       string
	OpenAIKey      string
	GoogleAPIKey   string

	ChunkSize    int
	ChunkOverlap int

	NumSourcesToRetrieve int
	RankBySimilarity     bool

	ArticleIngestLimit int
	TrialIngestLimit   int

	PubMedMaxResults  int
	TrialsMaxResults  int
	PubMedKeywords    []string
	TrialConditions   []string

	RedisAddr  string
	QdrantHost string
	QdrantPort int
}

// Load builds Settings from the environment. Call after godotenv so a
// .env file is honored. Missing keys fall back to defaults; a missing
// OPENAI_API_KEY is not an error here, the composer degrades instead.
func Load() Settings {
	return Settings{
		EmbeddingModel: envOr("EMBEDDING_MODEL", "gemini-embedding-001"),
		LLMModel:       envOr("LLM_MODEL", "gpt-4o-mini"),
		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		GoogleAPIKey:   strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),

		ChunkSize:    envOrInt("CHUNK_SIZE", 300),
		ChunkOverlap: envOrInt("CHUNK_OVERLAP", 50),

		NumSourcesToRetrieve: envOrInt("NUM_SOURCES_TO_RETRIEVE", 5),
		RankBySimilarity:     envOrBool("RANK_BY_SIMILARITY", false),

		ArticleIngestLimit: envOrInt("ARTICLE_INGEST_LIMIT", 25),
		TrialIngestLimit:   envOrInt("TRIAL_INGEST_LIMIT", 50),

		PubMedMaxResults: envOrInt("PUBMED_MAX_RESULTS", 100),
		TrialsMaxResults: envOrInt("CLINICAL_TRIALS_MAX_RESULTS", 100),
		PubMedKeywords: envOrList("PUBMED_KEYWORDS",
			"oncology drug discovery,autoimmune disorders,risperidone,drug repurposing"),
		TrialConditions: envOrList("CLINICAL_TRIALS_CONDITIONS",
			"Oncology,Autoimmune Disorders,Hypertension"),

		RedisAddr:  envOr("REDIS_ADDR", "127.0.0.1:6379"),
		QdrantHost: envOr("QDRANT_HOST", QdrantHost),
		QdrantPort: envOrInt("QDRANT_PORT", QdrantGrpcPort),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envOrBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envOrList(key, fallback string) []string {
	raw := envOr(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
