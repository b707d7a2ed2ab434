package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"` // 同步求解可能较慢
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"86400"` // 秒，1 天
		Secret     string `env:"SECRET,required,notEmpty"`
	} `envPrefix:"JWT_"`
	APIClient struct {
		ID         string `env:"ID" envDefault:"scheduler"`
		SecretHash string `env:"SECRET_HASH,required,notEmpty"` // bcrypt 哈希
	} `envPrefix:"API_CLIENT_"`
	Email struct {
		SMTP struct {
			// Host 为空时 worker 不发送通知邮件
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		Queue          string `env:"QUEUE" envDefault:"solve_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		ResultTTL           int    `env:"RESULT_TTL" envDefault:"3600"` // 求解结果缓存的秒数
	} `envPrefix:"REDIS_"`
	Solver struct {
		Workers int `env:"WORKERS" envDefault:"0"`  // <=0 表示不限制
		Timeout int `env:"TIMEOUT" envDefault:"60"` // 单次求解的秒数上限
		Exact   struct {
			MinimizeStaff bool `env:"MINIMIZE_STAFF" envDefault:"false"`
		} `envPrefix:"EXACT_"`
		Metaheuristic struct {
			PopulationSize     int     `env:"POPULATION_SIZE" envDefault:"100"`
			Generations        int     `env:"GENERATIONS" envDefault:"300"`
			TournamentSize     int     `env:"TOURNAMENT_SIZE" envDefault:"3"`
			CrossoverRate      float64 `env:"CROSSOVER_RATE" envDefault:"0.5"`
			CrossoverPoint     string  `env:"CROSSOVER_POINT" envDefault:"uniform"`
			MutationRate       float64 `env:"MUTATION_RATE" envDefault:"0.2"`
			BitFlipProbability float64 `env:"BIT_FLIP_PROBABILITY" envDefault:"0.05"`
			Objective          string  `env:"OBJECTIVE" envDefault:"lexicographic"`
			StaffingWeight     float64 `env:"STAFFING_WEIGHT" envDefault:"1.0"`
			PairRepeatWeight   float64 `env:"PAIR_REPEAT_WEIGHT" envDefault:"0.5"`
			Seed               int64   `env:"SEED" envDefault:"1"`
		} `envPrefix:"METAHEURISTIC_"`
		Annealing struct {
			BetaMin  float64 `env:"BETA_MIN" envDefault:"5"`
			BetaMax  float64 `env:"BETA_MAX" envDefault:"100"`
			Reads    int     `env:"READS" envDefault:"10"`
			Sweeps   int     `env:"SWEEPS" envDefault:"1000"`
			Schedule string  `env:"SCHEDULE" envDefault:"linear"`
			WeightA  float64 `env:"WEIGHT_A" envDefault:"2.0"`
			WeightB  float64 `env:"WEIGHT_B" envDefault:"1.0"`
			Strength float64 `env:"STRENGTH" envDefault:"5.0"`
			Seed     int64   `env:"SEED" envDefault:"1"`
		} `envPrefix:"ANNEALING_"`
	} `envPrefix:"SOLVER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
