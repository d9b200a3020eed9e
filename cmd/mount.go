package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/timeutil"

	"github.com/restfuse-project/restfuse/cfg"
	"github.com/restfuse-project/restfuse/internal/attrcache"
	"github.com/restfuse-project/restfuse/internal/changestream"
	"github.com/restfuse-project/restfuse/internal/clientfs"
	"github.com/restfuse-project/restfuse/internal/httpapi"
	"github.com/restfuse-project/restfuse/internal/logger"
)

// mountWithConfig builds the client stack described by newConfig (attribute
// cache, HTTP API client, change-stream subscriber, VFS dispatch layer) and
// mounts it at mountPoint, returning a fuse.MountedFileSystem that can be
// joined to wait for unmounting.
func mountWithConfig(ctx context.Context, mountPoint string, newConfig *cfg.Config) (mfs *fuse.MountedFileSystem, err error) {
	clock := timeutil.RealClock()
	attrs := newAttrCache(newConfig, clock)

	// One client ID is threaded through both the HTTP client (so the
	// server can tag broadcasts with it) and the change-stream subscriber
	// (so it can recognize and skip echoes of this client's own writes).
	clientID := uuid.NewString()
	api := httpapi.New(newConfig.Client.ServerURL, clientID, time.Duration(newConfig.Client.RequestTimeoutSecs)*time.Second)
	server, fileSystem := clientfs.New(api, attrs, clock)

	cs := changestream.NewWithID(clientID, wsURL(newConfig.Client.ServerURL), func(path, parent string) {
		fileSystem.InvalidatePath(path)
		if parent != "" {
			fileSystem.InvalidatePath(parent)
		}
	})

	fsName := fsName(newConfig)
	logger.Infof("mounting %s at %s\n", fsName, mountPoint)

	mfs, err = fuse.Mount(mountPoint, server, getFuseMountConfig(fsName, newConfig))
	if err != nil {
		return nil, fmt.Errorf("fuse.Mount: %w", err)
	}

	go func() {
		if runErr := cs.Run(ctx); runErr != nil && ctx.Err() == nil {
			logger.Warnf("change stream subscriber exited: %v", runErr)
		}
	}()

	return mfs, nil
}

func newAttrCache(newConfig *cfg.Config, clock timeutil.Clock) attrcache.Cache {
	switch newConfig.Client.CacheStrategy {
	case cfg.CacheStrategyLRU:
		return attrcache.NewLRU(int(newConfig.Client.CacheLRUCapacity))
	default:
		return attrcache.NewTTL(time.Duration(newConfig.Client.CacheTTLSeconds)*time.Second, clock)
	}
}

func wsURL(serverURL string) string {
	if strings.HasPrefix(serverURL, "https://") {
		return "wss://" + strings.TrimPrefix(serverURL, "https://") + "/ws"
	}
	return "ws://" + strings.TrimPrefix(serverURL, "http://") + "/ws"
}

func fsName(newConfig *cfg.Config) string {
	if newConfig.AppName != "" {
		return newConfig.AppName
	}
	return "restfuse"
}

func getFuseMountConfig(fsName string, newConfig *cfg.Config) *fuse.MountConfig {
	mountCfg := &fuse.MountConfig{
		FSName:               fsName,
		Subtype:              "restfuse",
		VolumeName:           "restfuse",
		EnableParallelDirOps: true,
	}

	if newConfig.Logging.Severity.Rank() <= cfg.ErrorLogSeverity.Rank() {
		mountCfg.ErrorLogger = log.New(logSink{"fuse: "}, "", 0)
	}
	if newConfig.Logging.Severity.Rank() <= cfg.TraceLogSeverity.Rank() {
		mountCfg.DebugLogger = log.New(logSink{"fuse_debug: "}, "", 0)
	}

	return mountCfg
}

// logSink adapts this project's structured logger to the io.Writer a
// *log.Logger needs, so fuse's internal diagnostic logging flows through
// the same sink as the rest of the process.
type logSink struct{ prefix string }

func (s logSink) Write(p []byte) (int, error) {
	logger.Warnf("%s%s", s.prefix, strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
