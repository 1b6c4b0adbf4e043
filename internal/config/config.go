package config

import (
	"github.com/uptimer-dev/uptimer/internal/notifier"
	"github.com/uptimer-dev/uptimer/internal/obs"
	kafkarepo "github.com/uptimer-dev/uptimer/internal/repository/kafka"
	pg "github.com/uptimer-dev/uptimer/internal/repository/postgres"
)

type App struct {
	Name     string `mapstructure:"name"`
	Link     string `mapstructure:"link"`
	Icon     string `mapstructure:"icon"`
	Timezone string `mapstructure:"timezone"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App    App                 `mapstructure:"app"`
	DB     pg.Config           `mapstructure:"db"`
	Broker kafkarepo.Config    `mapstructure:"broker"`
	SMTP   notifier.SMTPConfig `mapstructure:"smtp"`
	Server Server              `mapstructure:"server"`
	Log    obs.LogConfig       `mapstructure:"log"`
}
