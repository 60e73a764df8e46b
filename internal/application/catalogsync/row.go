package catalogsync

import (
	"sort"
	"strings"
	"unicode"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Named fallback keys per logical field, matched against folded headers in order
var (
	keysCode        = []string{"code", "codigo", "cod", "cod_articulo", "sku", "articulo", "id"}
	keysDescription = []string{"description", "descripcion", "desc", "detalle", "nombre", "name"}
	keysCostPrice   = []string{"cost_price", "cost", "costo", "precio_costo", "precio_compra"}
	keysSalePrice   = []string{"sale_price", "price", "precio", "precio_venta", "pvp"}
	keysStock       = []string{"stock", "quantity", "qty", "cantidad", "existencia"}
	keysActive      = []string{"active", "activo", "enabled", "habilitado"}
	keysLocation    = []string{"location", "ubicacion", "deposito"}
	keysUnit        = []string{"unit", "unidad", "um", "unidad_medida"}
	keysCategory    = []string{"category", "categoria", "rubro"}
	keysBrand       = []string{"brand", "marca"}
	keysBarcode     = []string{"barcode", "codigo_barras", "cod_barras", "codigo_de_barras", "ean", "upc"}

	keysPartnerCode = []string{"code", "codigo", "cod", "cod_cliente", "cod_proveedor", "id"}
	keysName        = []string{"name", "nombre", "razon_social", "company"}
	keysTaxID       = []string{"tax_id", "cuit", "cuil", "rut", "nif", "vat", "rfc"}
	keysEmail       = []string{"email", "e_mail", "mail", "correo"}
	keysPhone       = []string{"phone", "telefono", "tel", "celular"}
	keysAddress     = []string{"address", "direccion", "domicilio"}
)

// explicitFalse lists the active-flag values that switch an item off
var explicitFalse = map[string]struct{}{
	"false": {}, "0": {}, "no": {}, "n": {}, "f": {},
	"inactive": {}, "inactivo": {}, "baja": {},
}

var foldCaser = cases.Fold()

// FoldKey folds a header or flag value for comparison: accents stripped,
// case folded and every run of non-alphanumerics collapsed to '_'.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = foldCaser.String(stripped)

	var b strings.Builder
	pendingSep := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// fieldRow is a source row with folded keys and trimmed values
type fieldRow struct {
	line   int
	fields map[string]string
}

func normalizeRow(row syncrun.Row) fieldRow {
	headers := make([]string, 0, len(row.Fields))
	for k := range row.Fields {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	fr := fieldRow{line: row.Line, fields: make(map[string]string, len(row.Fields))}
	for _, h := range headers {
		key := FoldKey(h)
		if key == "" {
			continue
		}
		// the first non-empty value wins when two headers fold alike
		if existing, ok := fr.fields[key]; ok && existing != "" {
			continue
		}
		fr.fields[key] = strings.TrimSpace(row.Fields[h])
	}
	return fr
}

// get returns the first non-empty value among keys. An empty column falls
// through to the next fallback.
func (r fieldRow) get(keys []string) string {
	for _, k := range keys {
		if v := r.fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// ParseActive reads an active flag. Blank returns nil: the source did not say.
func ParseActive(raw string) *bool {
	v := FoldKey(raw)
	if v == "" {
		return nil
	}
	_, off := explicitFalse[v]
	active := !off
	return &active
}

// articleRow is a normalized articles row
type articleRow struct {
	line        int
	code        string
	description string
	costPrice   string
	salePrice   string
	stock       string
	active      *bool
	location    string
	unit        string
	category    string
	brand       string
	barcode     string
}

func parseArticleRow(row syncrun.Row) articleRow {
	fr := normalizeRow(row)
	return articleRow{
		line:        fr.line,
		code:        fr.get(keysCode),
		description: fr.get(keysDescription),
		costPrice:   fr.get(keysCostPrice),
		salePrice:   fr.get(keysSalePrice),
		stock:       fr.get(keysStock),
		active:      ParseActive(fr.get(keysActive)),
		location:    fr.get(keysLocation),
		unit:        fr.get(keysUnit),
		category:    fr.get(keysCategory),
		brand:       fr.get(keysBrand),
		barcode:     fr.get(keysBarcode),
	}
}

// partnerRow is a normalized clients or providers row
type partnerRow struct {
	line    int
	code    string
	name    string
	taxID   string
	email   string
	phone   string
	address string
	active  *bool
}

func parsePartnerRow(row syncrun.Row) partnerRow {
	fr := normalizeRow(row)
	return partnerRow{
		line:    fr.line,
		code:    fr.get(keysPartnerCode),
		name:    fr.get(keysName),
		taxID:   fr.get(keysTaxID),
		email:   fr.get(keysEmail),
		phone:   fr.get(keysPhone),
		address: fr.get(keysAddress),
		active:  ParseActive(fr.get(keysActive)),
	}
}
