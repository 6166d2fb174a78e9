package events

// Topics emitted by the settings and pricing services. Connected clients
// receive these through the notification transport owned by the frontend
// gateway; here they are persisted and fanned out to in-process notifiers.
const (
	TopicSettingsUpdated         = "settings.updated"
	TopicPaymentMethodsChanged   = "settings.payment_methods.changed"
	TopicServiceChargeRecomputed = "settings.service_charge.recomputed"
	TopicPricesRecalculated      = "pricing.recalculated"
	TopicMinimumStockPropagated  = "inventory.minimum_stock.propagated"
)
