package vault

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const vaultReadABIJSON = `[
  {
    "inputs": [{"internalType": "bytes32", "name": "poolId", "type": "bytes32"}],
    "name": "getPoolTokens",
    "outputs": [
      {"internalType": "address[]", "name": "tokens", "type": "address[]"},
      {"internalType": "uint256[]", "name": "balances", "type": "uint256[]"},
      {"internalType": "uint256", "name": "lastChangeBlock", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const stablePoolABIJSON = `[
  {
    "inputs": [],
    "name": "getPoolId",
    "outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "totalSupply",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getSwapFeePercentage",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getAmplificationParameter",
    "outputs": [
      {"internalType": "uint256", "name": "value", "type": "uint256"},
      {"internalType": "bool", "name": "isUpdating", "type": "bool"},
      {"internalType": "uint256", "name": "precision", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20DecimalsABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	vaultReadABI     abi.ABI
	vaultReadABIOnce sync.Once
	vaultReadABIErr  error

	stablePoolABI     abi.ABI
	stablePoolABIOnce sync.Once
	stablePoolABIErr  error

	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

// VaultReadABI returns the parsed vault read ABI.
func VaultReadABI() (abi.ABI, error) {
	vaultReadABIOnce.Do(func() {
		vaultReadABI, vaultReadABIErr = abi.JSON(strings.NewReader(vaultReadABIJSON))
	})
	return vaultReadABI, vaultReadABIErr
}

// StablePoolABI returns the parsed stable pool read ABI.
func StablePoolABI() (abi.ABI, error) {
	stablePoolABIOnce.Do(func() {
		stablePoolABI, stablePoolABIErr = abi.JSON(strings.NewReader(stablePoolABIJSON))
	})
	return stablePoolABI, stablePoolABIErr
}

func erc20DecimalsABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20DecimalsABIJSON))
	})
	return erc20ABI, erc20ABIErr
}
