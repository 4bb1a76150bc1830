package config

import (
	"fmt"
	"time"
)

// Defaults for the Israel Ministry of Transport public GTFS drop.
const (
	DefaultHost       = "gtfs.mot.gov.il"
	DefaultPort       = 21
	DefaultRemoteFile = "israel-public-transportation.zip"
	DefaultTimeout    = 60 * time.Second
)

// Endpoint identifies the remote GTFS archive and how to reach it.
type Endpoint struct {
	Host       string
	Port       int
	RemoteFile string
	Timeout    time.Duration // control connection dial timeout
}

// DefaultEndpoint returns the MOT public server defaults.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		Host:       DefaultHost,
		Port:       DefaultPort,
		RemoteFile: DefaultRemoteFile,
		Timeout:    DefaultTimeout,
	}
}

// Addr returns the control connection address in host:port form.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}
