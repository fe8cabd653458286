package chain

// ABI fragments for the two contracts the service touches. The Credit
// contract exposes the account struct read plus the two loan entry points;
// the payment token is a standard ERC-20 surface.

const creditABI = `[
	{
		"name": "accounts",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "", "type": "address"}],
		"outputs": [
			{"name": "kyc", "type": "string"},
			{"name": "creditLimit", "type": "uint256"},
			{"name": "totalBorrowed", "type": "uint256"},
			{"name": "totalPaid", "type": "uint256"},
			{"name": "totalDue", "type": "uint256"},
			{"name": "statementDate", "type": "uint256"},
			{"name": "dueDate", "type": "uint256"},
			{"name": "lateFee", "type": "uint256"},
			{"name": "isAccountActive", "type": "bool"}
		]
	},
	{
		"name": "borrowFunds",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "borrower", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"name": "repayLoans",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "amount", "type": "uint256"}],
		"outputs": []
	}
]`

const erc20ABI = `[
	{
		"name": "approve",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"name": "balanceOf",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"name": "allowance",
		"type": "function",
		"stateMutability": "view",
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`
