package main

import "github.com/dogmatiq/psikit/internal/config"

// options are the command-line options accepted by psid.
//
// Options that are set override the corresponding value in the configuration
// file.
type options struct {
	Config    string `long:"config" env:"PSID_CONFIG" description:"path to a YAML configuration file"`
	Threshold uint   `long:"threshold" env:"PSID_THRESHOLD" description:"number of contributions accepted per set ID"`
	HTTPAddr  string `long:"http-addr" env:"PSID_HTTP_ADDR" description:"address of the HTTP listener"`
	GRPCAddr  string `long:"grpc-addr" env:"PSID_GRPC_ADDR" description:"address of the gRPC listener"`
	Storage   string `long:"storage" env:"PSID_STORAGE" description:"storage driver (memory, postgres, dynamodb or redis)"`
}

func (o options) apply(cfg *config.Config) {
	if o.Threshold != 0 {
		cfg.Threshold = o.Threshold
	}

	if o.HTTPAddr != "" {
		cfg.Listen.HTTP = o.HTTPAddr
	}

	if o.GRPCAddr != "" {
		cfg.Listen.GRPC = o.GRPCAddr
	}

	if o.Storage != "" {
		cfg.Storage.Driver = o.Storage
	}
}
