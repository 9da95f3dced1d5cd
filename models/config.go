package models

type Config struct {
	Debug bool `yaml:"debug" envconfig:"VARSEARCH_DEBUG"`

	Api struct {
		Url  string `yaml:"url" envconfig:"VARSEARCH_PUBLIC_URL"`
		Port string `yaml:"port" envconfig:"VARSEARCH_API_INTERNAL_PORT" default:"5000"`
	} `yaml:"api"`

	Elasticsearch struct {
		Url        string `yaml:"url" envconfig:"VARSEARCH_ES_URL" default:"http://localhost:9200"`
		Username   string `yaml:"username" envconfig:"VARSEARCH_ES_USERNAME"`
		Password   string `yaml:"password" envconfig:"VARSEARCH_ES_PASSWORD"`
		GenesIndex string `yaml:"genesIndex" envconfig:"VARSEARCH_ES_GENES_INDEX" default:"genes"`
	} `yaml:"elasticsearch"`

	Postgres struct {
		Dsn string `yaml:"dsn" envconfig:"VARSEARCH_PG_DSN" default:"postgres://localhost/varsearch?sslmode=disable"`
	} `yaml:"postgres"`

	Search struct {
		ResultsLimit              int    `yaml:"resultsLimit" envconfig:"VARSEARCH_RESULTS_LIMIT" default:"2000"`
		ScrollBatchSize           int    `yaml:"scrollBatchSize" envconfig:"VARSEARCH_SCROLL_BATCH_SIZE" default:"500"`
		ScrollKeepAlive           string `yaml:"scrollKeepAlive" envconfig:"VARSEARCH_SCROLL_KEEPALIVE" default:"1m"`
		DiseaseGeneErrorTolerance int    `yaml:"diseaseGeneErrorTolerance" envconfig:"VARSEARCH_DISEASE_GENE_ERROR_TOLERANCE" default:"10"`
	} `yaml:"search"`

	Liftover struct {
		Enabled             bool   `yaml:"enabled" envconfig:"VARSEARCH_LIFTOVER_ENABLED" default:"true"`
		Grch37ToGrch38Chain string `yaml:"grch37ToGrch38Chain" envconfig:"VARSEARCH_LIFTOVER_37_TO_38_CHAIN" default:"https://hgdownload.soe.ucsc.edu/goldenPath/hg19/liftOver/hg19ToHg38.over.chain.gz"`
		Grch38ToGrch37Chain string `yaml:"grch38ToGrch37Chain" envconfig:"VARSEARCH_LIFTOVER_38_TO_37_CHAIN" default:"https://hgdownload.soe.ucsc.edu/goldenPath/hg38/liftOver/hg38ToHg19.over.chain.gz"`
		FetchRetries        int    `yaml:"fetchRetries" envconfig:"VARSEARCH_LIFTOVER_FETCH_RETRIES" default:"3"`
	} `yaml:"liftover"`

	Reference struct {
		CacheMaxGenes      int64  `yaml:"cacheMaxGenes" envconfig:"VARSEARCH_REFERENCE_CACHE_MAX_GENES" default:"100000"`
		CachePurgeInterval string `yaml:"cachePurgeInterval" envconfig:"VARSEARCH_REFERENCE_CACHE_PURGE_INTERVAL" default:"24h"`
	} `yaml:"reference"`

	Logging struct {
		Environment string `yaml:"environment" envconfig:"VARSEARCH_ENV" default:"prod"`
		Level       string `yaml:"level" envconfig:"VARSEARCH_LOG_LEVEL"`
	} `yaml:"logging"`
}
