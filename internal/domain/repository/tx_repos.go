package repository

// TxRepos repositorios ligados a una misma transacción.
type TxRepos struct {
	Movements  MovementRepository
	Documents  DocumentRepository
	Alerts     AlertRepository
	Products   ProductRepository
	Warehouses WarehouseRepository
}
