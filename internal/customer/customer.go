// Package customer holds the client record shared by the order builder and
// the name suggestion lookup.
package customer

// Client is a customer record owned by the clientes service.
type Client struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"nombre"`
	Phone   string `json:"telefono,omitempty"`
	Address string `json:"direccion,omitempty"`
}
