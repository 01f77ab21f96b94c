package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Gatehouse build information.",
		},
		[]string{"version", "commit"},
	)

	// Raising the token version revokes every outstanding token.
	tokenVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gatehouse_token_version",
		Help: "Token format version accepted by the verifier.",
	})
)

func registerBuild() {
	buildOnce.Do(func() {
		prometheus.MustRegister(buildInfo, tokenVersion)
	})
}

// InitBuildInfo sets build_info{version,commit} to 1, dropping any earlier labels.
func InitBuildInfo(version, commit string) {
	registerBuild()
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// SetTokenVersion records the configured token version.
func SetTokenVersion(v int) {
	registerBuild()
	tokenVersion.Set(float64(v))
}
