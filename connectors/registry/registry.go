// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/shared/logger"
)

// OpenFunc constructs a configured native pool for a descriptor. Adapters
// supply it so the registry stays ignorant of engine-specific DSNs and pool
// settings.
type OpenFunc func(desc base.Descriptor) (*sql.DB, error)

// Key derives the pool fingerprint for a descriptor. The password is excluded
// deliberately: pools are scoped to the non-secret connection shape. Two
// descriptors sharing all key fields but different passwords collapse onto
// one entry and the first pool wins.
func Key(desc base.Descriptor) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s",
		base.NormalizeEngine(desc.EngineType), desc.Host, desc.Port, desc.Database, desc.Username)
}

// entry guards a single pool's lazy construction. The per-entry Once
// guarantees one construction per key even when many callers race on an
// unseen key.
type entry struct {
	once sync.Once
	db   *sql.DB
	err  error
}

// Registry maps a pool key to exactly one live native pool handle, lazily
// created and shared by all concurrent callers. Entries live until CloseAll.
type Registry struct {
	mu    sync.Mutex
	pools map[string]*entry
	log   *logger.Logger
}

// New creates an empty pool registry.
func New() *Registry {
	return &Registry{
		pools: make(map[string]*entry),
		log:   logger.New("pool_registry"),
	}
}

// GetOrCreate returns the pool for the descriptor's key, constructing it via
// open on first use. If present, the stored handle is returned unconditionally;
// the registry does not re-validate credentials beyond the key fields. A
// failed construction is not cached, so a later call retries.
func (r *Registry) GetOrCreate(desc base.Descriptor, open OpenFunc) (*sql.DB, error) {
	key := Key(desc)

	r.mu.Lock()
	e, ok := r.pools[key]
	if !ok {
		e = &entry{}
		r.pools[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.db, e.err = open(desc)
		if e.err != nil {
			r.mu.Lock()
			// Drop the failed entry only if it is still ours; a concurrent
			// CloseAll may already have cleared the map.
			if cur, ok := r.pools[key]; ok && cur == e {
				delete(r.pools, key)
			}
			r.mu.Unlock()
			r.log.Warn("", "pool construction failed", map[string]interface{}{
				"key":   key,
				"error": e.err.Error(),
			})
			return
		}
		r.log.Info("", "pool created", map[string]interface{}{"key": key})
	})

	return e.db, e.err
}

// Get returns the pool for the descriptor's key without creating one.
func (r *Registry) Get(desc base.Descriptor) (*sql.DB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pools[Key(desc)]
	if !ok || e.db == nil {
		return nil, false
	}
	return e.db, true
}

// Len returns the number of live pool entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

// Keys returns the registered pool keys, sorted for stable diagnostics.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.pools))
	for k := range r.pools {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CloseAll closes every pool during graceful shutdown. Individual close
// failures are logged and swallowed so one wedged pool cannot block shutdown
// of the others. The registry is cleared afterward.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*entry)
	r.mu.Unlock()

	for key, e := range pools {
		if e.db == nil {
			continue
		}
		if err := e.db.Close(); err != nil {
			r.log.Error("", "failed to close pool", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		r.log.Info("", "pool closed", map[string]interface{}{"key": key})
	}
}
