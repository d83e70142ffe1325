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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/selfstorage/poolkeeper/pkg/configuration"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/registry"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Print the device record",
	Long:  `devices loads the device record file and prints it. Nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := configuration.Init(config.configFile, cmd.Flags()); err != nil {
			return err
		}
		reg, err := registry.NewRecordStore(configuration.Get().RecordPath).Load()
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), reg.All())
	},
}

func printDevices(out io.Writer, devices []types.StorageDevice) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERIAL\tNAME\tVENDOR\tMODEL\tSIZE\tIN POOL\tCONNECTED\tSTATUS\tLAST BACKUP")
	for _, d := range devices {
		lastBackup := d.BackupInfo.LastDatetime
		if lastBackup == "" {
			lastBackup = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
			d.Serial, d.Name, d.Vendor, d.Model, d.Size, d.InPool, d.Connected, d.Status, lastBackup)
	}
	return w.Flush()
}
