// Package transfer maps spreadsheet rows to equipment and measurement points
// and back.
package transfer

import "strings"

// Column is one recognised spreadsheet column. Header is what exports write;
// Synonyms are the other accepted spellings.
type Column struct {
	Key      string
	Header   string
	Synonyms []string
}

// Matches reports whether a header cell names this column.
func (c Column) Matches(header string) bool {
	h := normalizeHeader(header)
	if h == "" {
		return false
	}
	if h == normalizeHeader(c.Header) {
		return true
	}
	for _, s := range c.Synonyms {
		if h == normalizeHeader(s) {
			return true
		}
	}
	return false
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Equipment column keys.
const (
	ColSerial       = "serial_number"
	ColTag          = "tag"
	ColName         = "name"
	ColManufacturer = "manufacturer"
	ColModel        = "model"
	ColType         = "equipment_type"
	ColUnit         = "unit"
	ColResolution   = "resolution"
	ColRangeMin     = "range_min"
	ColRangeMax     = "range_max"
)

// Point column keys.
const (
	ColPointTag        = "point_tag"
	ColPointName       = "point_name"
	ColSite            = "site"
	ColClassification  = "classification"
	ColEquipmentSerial = "equipment_serial"
	ColLastCalibration = "last_calibration"
	ColNextCalibration = "next_calibration"
	ColFrequency       = "frequency"
)

// EquipmentColumns lists equipment columns in export order.
var EquipmentColumns = []Column{
	{Key: ColSerial, Header: "Serial Number", Synonyms: []string{"número de série", "numero de serie", "numero_serie", "serial_number"}},
	{Key: ColTag, Header: "Equipment Tag", Synonyms: []string{"tag equipamento", "tag_equipamento", "tag"}},
	{Key: ColName, Header: "Equipment Name", Synonyms: []string{"nome equipamento", "nome_equipamento", "equipment_name", "name"}},
	{Key: ColManufacturer, Header: "Manufacturer", Synonyms: []string{"fabricante", "marca"}},
	{Key: ColModel, Header: "Model", Synonyms: []string{"modelo"}},
	{Key: ColType, Header: "Equipment Type", Synonyms: []string{"tipo equipamento", "tipo_equipamento", "equipment_type"}},
	{Key: ColUnit, Header: "Unit", Synonyms: []string{"unidade"}},
	{Key: ColResolution, Header: "Resolution", Synonyms: []string{"resolução", "resolucao"}},
	{Key: ColRangeMin, Header: "Range Min", Synonyms: []string{"faixa mínima", "faixa_minima"}},
	{Key: ColRangeMax, Header: "Range Max", Synonyms: []string{"faixa máxima", "faixa_maxima"}},
}

// PointColumns lists measurement point columns in export order.
var PointColumns = []Column{
	{Key: ColPointTag, Header: "Point Tag", Synonyms: []string{"tag_ponto_medicao", "tag ponto medição", "tag ponto medicao"}},
	{Key: ColPointName, Header: "Point Name", Synonyms: []string{"nome_ponto_medicao", "nome ponto medição"}},
	{Key: ColSite, Header: "Site", Synonyms: []string{"polo"}},
	{Key: ColClassification, Header: "Classification", Synonyms: []string{"classificacao", "classificação"}},
	{Key: ColEquipmentSerial, Header: "Equipment Serial", Synonyms: []string{"numero_serie_equipamento", "número série equipamento"}},
	{Key: ColLastCalibration, Header: "Last Calibration", Synonyms: []string{"data_ultima_calibracao"}},
	{Key: ColNextCalibration, Header: "Next Calibration", Synonyms: []string{"data_proxima_calibracao"}},
	{Key: ColFrequency, Header: "Calibration Frequency (days)", Synonyms: []string{"frequencia_calibracao_anp"}},
}

// Headers returns the export header row for columns.
func Headers(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}

// HeaderIndex maps column keys to cell positions.
type HeaderIndex map[string]int

// IndexHeaders locates known columns in a header row. Unknown headers are
// ignored; the first match of a column wins.
func IndexHeaders(headers []string, columns []Column) HeaderIndex {
	idx := make(HeaderIndex)
	for pos, h := range headers {
		for _, c := range columns {
			if _, seen := idx[c.Key]; seen {
				continue
			}
			if c.Matches(h) {
				idx[c.Key] = pos
				break
			}
		}
	}
	return idx
}

// Row is one data row keyed by column key. Missing cells are absent.
type Row map[string]string

// BuildRow picks the known cells of raw.
func (idx HeaderIndex) BuildRow(raw []string) Row {
	row := make(Row, len(idx))
	for key, pos := range idx {
		if pos < len(raw) {
			row[key] = strings.TrimSpace(raw[pos])
		}
	}
	return row
}

// Get returns the trimmed cell for key, or "".
func (r Row) Get(key string) string {
	return r[key]
}

// Blank reports whether raw has no content at all.
func Blank(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
