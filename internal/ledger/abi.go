package ledger

// EventTicketABI covers the slice of the ERC-721 ticket collection the
// engine reads and drives. getTicketInfo is the issuer's convenience
// view bundling metadata with the current owner.
const EventTicketABI = `[
	{
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "ownerOf",
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "getTicketInfo",
		"outputs": [
			{"name": "eventName", "type": "string"},
			{"name": "eventDate", "type": "string"},
			{"name": "seatNumber", "type": "string"},
			{"name": "owner", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "eventName",
		"outputs": [{"name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "eventDate",
		"outputs": [{"name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "ticketPrice",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "maxTickets",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "getApproved",
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// TicketMarketplaceABI covers the shared marketplace contract.
// Listing ids are assigned sequentially by listingCounter and never
// reused; status is 0 active, 1 sold, 2 cancelled.
const TicketMarketplaceABI = `[
	{
		"inputs": [{"name": "listingId", "type": "uint256"}],
		"name": "listings",
		"outputs": [
			{"name": "seller", "type": "address"},
			{"name": "ticketContract", "type": "address"},
			{"name": "tokenId", "type": "uint256"},
			{"name": "price", "type": "uint256"},
			{"name": "status", "type": "uint8"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "listingCounter",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "ticketContract", "type": "address"},
			{"name": "tokenId", "type": "uint256"},
			{"name": "price", "type": "uint256"}
		],
		"name": "listTicket",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "listingId", "type": "uint256"}],
		"name": "buyTicket",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [{"name": "listingId", "type": "uint256"}],
		"name": "cancelListing",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "listingId", "type": "uint256"},
			{"indexed": true, "name": "seller", "type": "address"},
			{"indexed": false, "name": "ticketContract", "type": "address"},
			{"indexed": false, "name": "tokenId", "type": "uint256"},
			{"indexed": false, "name": "price", "type": "uint256"}
		],
		"name": "TicketListed",
		"type": "event"
	}
]`
