package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-oee/internal/model/entity"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// OeeTableTSV 把OEE记录表写成GBK编码的TSV。
// Windows版Excel双击打开默认按本地编码解析，UTF-8会乱码。
func OeeTableTSV(records []entity.OeeRecord) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(strings.Join(oeeHeaders, "\t"))
	sb.WriteString("\r\n")

	for _, r := range records {
		fields := []string{
			r.Date.Format(dateLayout),
			string(r.Shift),
			string(r.Machine),
			formatFloat(r.PlannedProductionTime),
			formatFloat(r.DowntimeMinutes),
			string(r.DowntimeReason),
			formatFloat(r.IdealCycleTime),
			formatFloat(r.ActualCycleTime),
			fmt.Sprintf("%d", r.TotalUnitsProduced),
			fmt.Sprintf("%d", r.DefectiveUnits),
			fmt.Sprintf("%d", r.GoodUnits),
			formatFloat(r.Availability),
			formatFloat(r.Performance),
			formatFloat(r.Quality),
			formatFloat(r.OEE),
		}
		sb.WriteString(strings.Join(fields, "\t"))
		sb.WriteString("\r\n")
	}

	// UTF-8 → GBK
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, simplifiedchinese.GBK.NewEncoder())
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return nil, fmt.Errorf("gbk encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gbk encode: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
