package repository

// TxRepos repositorios atados a una misma transacción. Los construye el TxRunner.
type TxRepos struct {
	Lots      LotRepository
	Ledger    StockLedgerRepository
	Areas     AreaInventoryRepository
	Movements MovementHistoryRepository
	Transfers TransferRequestRepository
	Products  ProductRepository
}
