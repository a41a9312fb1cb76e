package plugin

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/models"
)

// hostInfo describes the sampled machine. Failures only leave fields empty.
func hostInfo(ctx context.Context, logger *zap.Logger) models.HostInfo {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Warn("Failed to read host info", zap.Error(err))
		return models.HostInfo{}
	}
	return models.HostInfo{
		Hostname:      info.Hostname,
		OS:            info.OS,
		KernelVersion: info.KernelVersion,
		BootTime:      info.BootTime,
	}
}
