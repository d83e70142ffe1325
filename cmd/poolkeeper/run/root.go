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
	"os"

	"github.com/spf13/cobra"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/pkg/configuration"
)

var config struct {
	configFile string
}

var rootCmd = &cobra.Command{
	Use:     "poolkeeper",
	Version: poolkeeper.Version,
	Short:   "Removable storage pool keeper",
	Long: `poolkeeper watches the removable block devices of this host.
New usb or removable disks are erased, partitioned and added to the
storage pool, pool members are tracked across unplug and replug, and
the device record is kept on disk.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return subMain(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	pfs := rootCmd.PersistentFlags()
	pfs.StringVar(&config.configFile, "config", "", "configuration file (default "+poolkeeper.DefaultConfigPath+")")
	pfs.String("record-path", poolkeeper.DefaultRecordPath, "device record file")

	fs := rootCmd.Flags()
	fs.String("pool-name", poolkeeper.DefaultPoolName, "storage pool to create or extend")
	fs.Duration("poll-interval", configuration.DefaultPollInterval, "interval between device scans")
	fs.String("http-addr", poolkeeper.DefaultHttpAddr, "listen address of the read-only status endpoint, empty disables it")
	fs.String("log-path", poolkeeper.DefaultLogPath, "log file, empty logs to stdout only")
	fs.Bool("debug", false, "debug logging")

	rootCmd.AddCommand(devicesCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), poolkeeper.Version)
	},
}
