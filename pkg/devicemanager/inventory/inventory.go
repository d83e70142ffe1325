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

package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/utils/exec"
)

// Source lists the block devices currently attached to the host
type Source interface {
	List(ctx context.Context) ([]types.BlockDevice, error)
}

// New returns the inventory source selected by kind
func New(kind string, executor exec.Executor, timeout time.Duration) (Source, error) {
	switch kind {
	case "", poolkeeper.InventoryLsblk:
		return NewLsblkSource(executor, timeout), nil
	case poolkeeper.InventoryGhw:
		return NewGhwSource(), nil
	default:
		return nil, fmt.Errorf("unsupported inventory source %q", kind)
	}
}
