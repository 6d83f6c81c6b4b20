package join

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const vaultABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes32", "name": "poolId", "type": "bytes32"},
      {"internalType": "address", "name": "sender", "type": "address"},
      {"internalType": "address", "name": "recipient", "type": "address"},
      {
        "components": [
          {"internalType": "address[]", "name": "assets", "type": "address[]"},
          {"internalType": "uint256[]", "name": "maxAmountsIn", "type": "uint256[]"},
          {"internalType": "bytes", "name": "userData", "type": "bytes"},
          {"internalType": "bool", "name": "fromInternalBalance", "type": "bool"}
        ],
        "internalType": "struct IVault.JoinPoolRequest",
        "name": "request",
        "type": "tuple"
      }
    ],
    "name": "joinPool",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	vaultABI     abi.ABI
	vaultABIOnce sync.Once
	vaultABIErr  error
)

// VaultABI returns the parsed vault joinPool ABI.
func VaultABI() (abi.ABI, error) {
	vaultABIOnce.Do(func() {
		vaultABI, vaultABIErr = abi.JSON(strings.NewReader(vaultABIJSON))
	})
	return vaultABI, vaultABIErr
}

// exactTokensInForBPTOutKind is the join kind enforcing a minimum mint for
// an exact-tokens-in deposit.
const exactTokensInForBPTOutKind = 1

var (
	userDataArgs     abi.Arguments
	userDataArgsOnce sync.Once
	userDataArgsErr  error
)

func userDataArguments() (abi.Arguments, error) {
	userDataArgsOnce.Do(func() {
		uint256Type, err := abi.NewType("uint256", "", nil)
		if err != nil {
			userDataArgsErr = err
			return
		}
		uint256SliceType, err := abi.NewType("uint256[]", "", nil)
		if err != nil {
			userDataArgsErr = err
			return
		}
		userDataArgs = abi.Arguments{
			{Type: uint256Type},
			{Type: uint256SliceType},
			{Type: uint256Type},
		}
	})
	return userDataArgs, userDataArgsErr
}

type joinPoolRequest struct {
	Assets              []common.Address
	MaxAmountsIn        []*big.Int
	UserData            []byte
	FromInternalBalance bool
}

// encodeUserData packs the join kind, deposit amounts, and the minimum mint.
// The encoded minimum must equal the value reported to the caller so the
// on-chain check and the off-chain report cannot diverge.
func encodeUserData(amountsIn []*big.Int, minBPTOut *big.Int) ([]byte, error) {
	args, err := userDataArguments()
	if err != nil {
		return nil, fmt.Errorf("build user data arguments: %w", err)
	}
	return args.Pack(big.NewInt(exactTokensInForBPTOutKind), amountsIn, minBPTOut)
}

// encodeJoinCall assembles the full joinPool calldata.
func encodeJoinCall(poolID [32]byte, sender common.Address, assets []common.Address, maxAmountsIn []*big.Int, userData []byte) ([]byte, error) {
	parsed, err := VaultABI()
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}
	request := joinPoolRequest{
		Assets:              assets,
		MaxAmountsIn:        maxAmountsIn,
		UserData:            userData,
		FromInternalBalance: false,
	}
	return parsed.Pack("joinPool", poolID, sender, sender, request)
}
