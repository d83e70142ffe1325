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

package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// record file columns, in order
const (
	colSerial = iota
	colName
	colVendor
	colModel
	colSize
	colReliable
	colInPool
	colConnected
	colBackupSerial
	colBackupDatetime
	colBackupError
	colStatus
	numColumns
)

// RecordStore persists the registry as a flat csv table, one row per device.
type RecordStore struct {
	path string
}

func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

func (s *RecordStore) Path() string {
	return s.path
}

// Load parses the record file into a registry. A missing file yields an
// empty registry, a malformed row is an error naming the row.
func (s *RecordStore) Load() (*Registry, error) {
	reg := New()
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("no device record at %s, starting with an empty registry", s.path)
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open device record %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for row := 1; ; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read device record %s: %w", s.path, err)
		}
		d, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("device record %s row %d: %w", s.path, row, err)
		}
		if reg.Has(d.Serial) {
			return nil, fmt.Errorf("device record %s row %d: duplicate serial %q", s.path, row, d.Serial)
		}
		reg.Upsert(d)
	}
	log.Infof("loaded %d device records from %s", reg.Len(), s.path)
	return reg, nil
}

// Persist rewrites the record file with every device of reg. The rows are
// written to a temporary file in the same directory which then replaces
// the record, so a crash never leaves a torn table behind.
func (s *RecordStore) Persist(reg *Registry) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary device record in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreNotExist(os.Remove(tmp.Name())))
		}
	}()

	w := csv.NewWriter(tmp)
	for _, d := range reg.All() {
		if err = w.Write(formatRow(d)); err != nil {
			return multierr.Append(fmt.Errorf("write device record: %w", err), tmp.Close())
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return multierr.Append(fmt.Errorf("write device record: %w", err), tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("sync device record: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close device record: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod device record: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace device record %s: %w", s.path, err)
	}
	syncDir(dir)
	return nil
}

func parseRow(fields []string) (types.StorageDevice, error) {
	if len(fields) != numColumns {
		return types.StorageDevice{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}
	if fields[colSerial] == "" {
		return types.StorageDevice{}, errors.New("empty serial")
	}

	d := types.StorageDevice{
		Serial: fields[colSerial],
		Name:   fields[colName],
		Vendor: fields[colVendor],
		Model:  fields[colModel],
		Size:   fields[colSize],
		BackupInfo: types.BackupInfo{
			DeviceSerial: fields[colBackupSerial],
			LastDatetime: fields[colBackupDatetime],
			ErrorStr:     fields[colBackupError],
		},
	}

	var err error
	if d.Reliable, err = parseBool("reliable", fields[colReliable]); err != nil {
		return d, err
	}
	if d.InPool, err = parseBool("inPool", fields[colInPool]); err != nil {
		return d, err
	}
	if d.Connected, err = parseBool("connected", fields[colConnected]); err != nil {
		return d, err
	}
	if d.Status, err = types.ParseStatus(fields[colStatus]); err != nil {
		return d, err
	}
	return d, nil
}

func parseBool(column, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("column %s: %q is not a boolean", column, value)
	}
	return b, nil
}

func formatRow(d types.StorageDevice) []string {
	row := make([]string, numColumns)
	row[colSerial] = d.Serial
	row[colName] = d.Name
	row[colVendor] = d.Vendor
	row[colModel] = d.Model
	row[colSize] = d.Size
	row[colReliable] = strconv.FormatBool(d.Reliable)
	row[colInPool] = strconv.FormatBool(d.InPool)
	row[colConnected] = strconv.FormatBool(d.Connected)
	row[colBackupSerial] = d.BackupInfo.DeviceSerial
	row[colBackupDatetime] = d.BackupInfo.LastDatetime
	row[colBackupError] = d.BackupInfo.ErrorStr
	row[colStatus] = d.Status.String()
	return row
}

func ignoreNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// syncDir makes the rename durable, failures only cost durability of the
// rename itself so they are logged
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		log.Warnf("open %s for sync: %v", dir, err)
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		log.Warnf("sync %s: %v", dir, err)
	}
}
