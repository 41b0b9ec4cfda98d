package contract

// billPayABI covers the two payment entry points and the three events the
// deployed bill-payment contract exposes to this client.
const billPayABI = `
[
  {
    "name": "processGeneralPayment",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "token", "type": "address" },
      { "name": "amount", "type": "uint256" },
      { "name": "recipient", "type": "address" }
    ],
    "outputs": []
  },
  {
    "name": "processPayment",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "token", "type": "address" },
      { "name": "amount", "type": "uint256" },
      { "name": "billerBankName", "type": "string" },
      { "name": "billerAccountName", "type": "string" },
      { "name": "billerAccountNumber", "type": "string" },
      { "name": "amountInNgn", "type": "uint256" },
      { "name": "senderName", "type": "string" }
    ],
    "outputs": []
  },
  {
    "name": "PaymentProcessed",
    "type": "event",
    "anonymous": false,
    "inputs": [
      { "name": "sender", "type": "address", "indexed": true },
      { "name": "token", "type": "address", "indexed": false },
      { "name": "amount", "type": "uint256", "indexed": false },
      { "name": "baseAmount", "type": "uint256", "indexed": false },
      { "name": "fee", "type": "uint256", "indexed": false },
      { "name": "billerDetailsHash", "type": "bytes32", "indexed": false },
      { "name": "amountInNgn", "type": "uint256", "indexed": false },
      { "name": "txHash", "type": "string", "indexed": false }
    ]
  },
  {
    "name": "GeneralPaymentProcessed",
    "type": "event",
    "anonymous": false,
    "inputs": [
      { "name": "sender", "type": "address", "indexed": true },
      { "name": "token", "type": "address", "indexed": false },
      { "name": "amount", "type": "uint256", "indexed": false },
      { "name": "recipient", "type": "address", "indexed": false },
      { "name": "fee", "type": "uint256", "indexed": false },
      { "name": "txHash", "type": "string", "indexed": false }
    ]
  },
  {
    "name": "BillerSettled",
    "type": "event",
    "anonymous": false,
    "inputs": [
      { "name": "sender", "type": "address", "indexed": true },
      { "name": "txHash", "type": "string", "indexed": false },
      { "name": "billerDetailsHash", "type": "bytes32", "indexed": false },
      { "name": "amountInNgn", "type": "uint256", "indexed": false }
    ]
  }
]
`

// erc20ABI is the slice of EIP-20 needed for spending approval.
const erc20ABI = `
[
  {
    "name": "allowance",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      { "name": "owner", "type": "address" },
      { "name": "spender", "type": "address" }
    ],
    "outputs": [ { "name": "", "type": "uint256" } ]
  },
  {
    "name": "approve",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "spender", "type": "address" },
      { "name": "amount", "type": "uint256" }
    ],
    "outputs": [ { "name": "", "type": "bool" } ]
  }
]
`
