package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/shelf-inventory/internal/domain"
)

// SortKey es un campo público de orden aceptado por los listados. Los adaptadores mapean
// cada clave a una columna con una tabla explícita; el texto del cliente nunca llega al almacén.
type SortKey string

const (
	SortCreatedAt     SortKey = "createdAt"
	SortUpdatedAt     SortKey = "updatedAt"
	SortDate          SortKey = "date"
	SortQuantity      SortKey = "quantity"
	SortProductID     SortKey = "productId"
	SortPaymentStatus SortKey = "paymentStatus"
	SortName          SortKey = "name"
	SortPrice         SortKey = "price"
	SortInitialStock  SortKey = "initialStock"
)

// LedgerSortKeys son las claves por las que se puede ordenar un listado del libro.
var LedgerSortKeys = []SortKey{SortDate, SortCreatedAt, SortQuantity, SortProductID, SortPaymentStatus}

// ProductSortKeys son las claves por las que se puede ordenar un listado de productos.
var ProductSortKeys = []SortKey{SortCreatedAt, SortUpdatedAt, SortName, SortPrice, SortInitialStock}

// Sort es un orden validado.
type Sort struct {
	Key  SortKey
	Desc bool
}

// ParseSort valida la clave y dirección del cliente contra allowed. Clave vacía da def.
func ParseSort(key, direction string, allowed []SortKey, def Sort) (Sort, error) {
	out := def
	if key != "" {
		found := false
		for _, k := range allowed {
			if string(k) == key {
				out.Key, found = k, true
				break
			}
		}
		if !found {
			return Sort{}, domain.Reject(domain.ErrInvalidInput, fmt.Sprintf("unknown sort key %q", key))
		}
	}
	switch strings.ToLower(direction) {
	case "":
	case "asc":
		out.Desc = false
	case "desc":
		out.Desc = true
	default:
		return Sort{}, domain.Reject(domain.ErrInvalidInput, fmt.Sprintf("unknown sort direction %q", direction))
	}
	return out, nil
}

// CheckSortTable reporta las claves sin entrada en la tabla de columnas de un adaptador.
func CheckSortTable[V any](table map[SortKey]V, keys []SortKey) error {
	var missing []string
	for _, k := range keys {
		if _, ok := table[k]; !ok {
			missing = append(missing, string(k))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("claves de orden sin columna mapeada: %s", strings.Join(missing, ", "))
}
