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

// Package sharing refreshes the file-sharing service after the pool grows.
package sharing

import (
	"context"
	"fmt"
	"time"

	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

type Restarter struct {
	Executor exec.Executor
	Service  string
	Timeout  time.Duration
}

func NewRestarter(executor exec.Executor, service string, timeout time.Duration) *Restarter {
	return &Restarter{Executor: executor, Service: service, Timeout: timeout}
}

// Restart restarts the service through systemd. An empty service name disables it.
func (r *Restarter) Restart(ctx context.Context) error {
	if r.Service == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := r.Executor.ExecuteCommandWithTimeout(r.Timeout, "systemctl", "restart", r.Service)
	if err != nil {
		return fmt.Errorf("restart %s: %w", r.Service, err)
	}
	log.Debug(out)
	log.Infof("restarted %s", r.Service)
	return nil
}
