package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBanksHTML = `<html><body><table><tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap</th></tr>
<tr><td>1</td><td><a href="/wiki/Example_Bank">Example Bank</a></td><td>100.5</td></tr>
<tr><td>2</td><td><a href="/wiki/Other_Bank">Other Bank</a></td><td>N/A</td></tr>
</tbody></table></body></html>`

const testConfigTemplate = `logging:
  level: error
  output: stderr

jobs:
  banks:
    source_url: %[1]s/banks.html
    reference_table_path: %[1]s/exchange_rate.csv
    output_csv_path: %[1]s/Largest_banks_data.csv
    database_path: %[1]s/Banks.db
    table_name: Largest_banks
    log_path: %[1]s/code_log.txt
    table:
      index: 0
      link_cell: 1
      columns:
        - name: Name
          cell: 1
        - name: MC_USD_Billion
          cell: 2
    transform:
      type: currency
      column: MC_USD_Billion
      currencies: [EUR, GBP, INR]
      rounding: half_even
    queries:
      - name: avg_gbp
        sql: "SELECT AVG(MC_GBP_Billion) FROM {{table}}"
      - name: top_names
        sql: "SELECT Name FROM {{table}} LIMIT 5"
`

// writeTestConfig creates a config with a banks job that reads local files
// and returns the config path and its directory.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banks.html"), []byte(testBanksHTML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exchange_rate.csv"), []byte("Currency,Rate\nEUR,0.93\nGBP,0.8\nINR,82.0\n"), 0644))

	path := filepath.Join(dir, "wikietl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfigTemplate, dir)), 0644))
	return path, dir
}
