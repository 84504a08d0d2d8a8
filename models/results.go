package models

// TransferResult represents the outcome of a transfer (returned to the user)
type TransferResult struct {
	Amount      int64
	From        string
	To          string
	FromBalance int64
	ToBalance   int64
}

// WithdrawResult represents the outcome of a bank withdrawal
type WithdrawResult struct {
	Amount   int64 // taken out of the bank
	Fee      int64
	Received int64 // credited to the balance
	Balance  int64
	Bank     int64
}

// DepositResult represents the outcome of a bank deposit
type DepositResult struct {
	Amount  int64
	Balance int64
	Bank    int64
}
