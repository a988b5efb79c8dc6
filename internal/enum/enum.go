package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "PENDIENTE"
	OrderStatusReady     = "LISTO"
	OrderStatusDelivered = "ENTREGADO"
)

const (
	PaymentStatusActive    = "activo"
	PaymentStatusCancelled = "cancelado"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	PaymentMethodCash        = "efectivo"
	PaymentMethodDebit       = "debito"
	PaymentMethodCredit      = "credito"
	PaymentMethodMercadoPago = "mercadopago"
)

const (
	UserRoleAdmin        = "Administrador"
	UserRoleReceptionist = "Recepcionista"
	UserRoleCashier      = "Cajero"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	CurrencyARS = "ARS"
)

const (
	FeedSourceOrders   = "pedidos"
	FeedSourceProducts = "productos"
)

const (
	FeedActionCreate = "create"
	FeedActionUpdate = "update"
	FeedActionDelete = "delete"
)

// DefaultCategoryName groups products that have no category.
const DefaultCategoryName = "Sin Categoría"
