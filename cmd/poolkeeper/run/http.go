/*
   Copyright @ 2021 bocloud <fushaosong@beyondcent.com>.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package run

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/pkg/metrics"
	"github.com/selfstorage/poolkeeper/runners"
	"github.com/selfstorage/poolkeeper/utils/log"
)

const shutdownTimeout = 5 * time.Second

type deviceReader interface {
	All() []types.StorageDevice
	Get(serial string) (types.StorageDevice, bool)
}

// eHttpServer only reads; every mutation belongs to the device check
type eHttpServer struct {
	e       *echo.Echo
	devices deviceReader
	checker runners.Checker
}

func newHttpServer(devices deviceReader, checker runners.Checker) *eHttpServer {
	h := &eHttpServer{
		e:       echo.New(),
		devices: devices,
		checker: checker,
	}
	h.e.HideBanner = true
	h.e.HidePort = true

	h.e.GET("/devices", h.deviceList)
	h.e.GET("/devices/:serial", h.deviceGet)
	h.e.GET("/healthz", healthz)
	h.e.GET("/readyz", h.readyz)
	h.e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	return h
}

func (h *eHttpServer) start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("status endpoint listening on %s", addr)
		errCh <- h.e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return h.e.Shutdown(sctx)
	}
}

func (h *eHttpServer) deviceList(c echo.Context) error {
	return c.JSON(http.StatusOK, h.devices.All())
}

func (h *eHttpServer) deviceGet(c echo.Context) error {
	d, ok := h.devices.Get(c.Param("serial"))
	if !ok {
		return c.JSON(http.StatusNotFound, "device not found")
	}
	return c.JSON(http.StatusOK, d)
}

func healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *eHttpServer) readyz(c echo.Context) error {
	ready, err := h.checker.Ready()
	if !ready {
		msg := "not ready"
		if err != nil {
			msg = err.Error()
		}
		return c.String(http.StatusServiceUnavailable, msg)
	}
	return c.String(http.StatusOK, "ok")
}
