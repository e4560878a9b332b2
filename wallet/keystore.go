package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledgerforge/corechain/crypto"
	"golang.org/x/crypto/pbkdf2"
)

// keystoreFile is the on-disk shape. SignerID is stored in the clear so
// an operator can tell which validator identity a keystore holds without
// decrypting it; on load it doubles as an integrity check against the
// decrypted key.
type keystoreFile struct {
	SignerID   string `json:"signer_id"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipher_text"`
}

// SaveKeystore encrypts kp's private key with password and writes it to
// path, using AES-GCM over a PBKDF2-derived key.
func SaveKeystore(path, password string, kp crypto.KeyPair) error {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	key := deriveKey(password, salt)

	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(cipherBlock)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	cipherText := gcm.Seal(nil, nonce, kp.Priv, nil)

	ks := keystoreFile{
		SignerID:   kp.Identity(),
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		CipherText: hex.EncodeToString(cipherText),
	}
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadKeystore decrypts the keystore at path using password.
func LoadKeystore(path, password string) (crypto.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return crypto.KeyPair{}, err
	}
	salt, err := hex.DecodeString(ks.Salt)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	nonce, err := hex.DecodeString(ks.Nonce)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	cipherText, err := hex.DecodeString(ks.CipherText)
	if err != nil {
		return crypto.KeyPair{}, err
	}

	key := deriveKey(password, salt)
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	gcm, err := cipher.NewGCM(cipherBlock)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	privBytes, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return crypto.KeyPair{}, errors.New("wallet: wrong password or corrupted keystore")
	}

	kp, err := crypto.PrivateKey(privBytes).Pair()
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("wallet: decrypted key is malformed: %w", err)
	}
	if kp.Identity() != ks.SignerID {
		return crypto.KeyPair{}, errors.New("wallet: decrypted key does not match the keystore's recorded signer")
	}
	return kp, nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 210_000, 32, sha256.New)
}
