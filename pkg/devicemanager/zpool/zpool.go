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

package zpool

import (
	"context"
	"time"

	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// Pool drives the zpool utility for one named pool
type Pool struct {
	Executor exec.Executor
	Name     string
	Timeout  time.Duration
}

func NewPool(executor exec.Executor, name string, timeout time.Duration) *Pool {
	return &Pool{Executor: executor, Name: name, Timeout: timeout}
}

// AddDevice creates the pool on the device when create is set, otherwise
// adds the device to the existing pool. Adding a device twice is an error
// in zpool, callers only pass devices that are not yet members.
func (p *Pool) AddDevice(ctx context.Context, device string, create bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	action := "add"
	if create {
		action = "create"
	}
	out, err := p.Executor.ExecuteCommandWithTimeout(p.Timeout, "zpool", action, p.Name, device)
	if err != nil {
		return err
	}
	log.Debug(out)
	log.Infof("zpool %s %s %s succeeded", action, p.Name, device)
	return nil
}
