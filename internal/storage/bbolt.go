package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")  // cipher suite, KDF params, master seed, timestamps - unencrypted
	IndexBucket   = []byte("index")   // object counts for status - unencrypted
	PrivateBucket = []byte("private") // encrypted key check and vault tree
)

// Config keys
var (
	ConfigVersion     = []byte("version")
	ConfigVaultID     = []byte("vault_id")
	ConfigCreated     = []byte("created")
	ConfigModified    = []byte("modified")
	ConfigCipher      = []byte("cipher")
	ConfigCompression = []byte("compression")
	ConfigKdf         = []byte("kdf")
	ConfigMasterSeed  = []byte("master_seed")
	ConfigCustomData  = []byte("custom_data")
)

// Index keys
var (
	IndexGroups  = []byte("groups")
	IndexEntries = []byte("entries")
)

// Private keys
var (
	PrivateCheck = []byte("check")
	PrivateTree  = []byte("tree")
)

// keyCheckValue decrypts correctly only under the right key, turning
// an AEAD failure into a clean wrong-key answer before the tree is
// touched
const keyCheckValue = "keepassxc-key-check"

var (
	ErrNotAVault = errors.New("not a vault file")
	ErrWrongKey  = errors.New("wrong key")
)

// Writer serializes a database into a BBolt container file. It
// implements core.ContainerWriter; Database.SaveToFile owns the backup
// and the temp-file-then-rename replace around it.
type Writer struct{}

// WriteDatabaseFile writes the whole database to the given path:
// envelope settings and counts in plaintext, the key check and the
// serialized tree encrypted under the derived key
func (Writer) WriteDatabaseFile(path string, db *core.Database) error {
	envelope := db.Envelope()
	encKey, err := envelope.EncryptionKey()
	if err != nil {
		return fmt.Errorf("no usable key: %w", err)
	}
	enc, err := crypto.NewEncryptor(envelope.Cipher(), encKey)
	if err != nil {
		return err
	}
	defer enc.Destroy()

	plain, err := json.Marshal(encodeDatabase(db))
	if err != nil {
		return fmt.Errorf("failed to encode vault tree: %w", err)
	}
	defer crypto.ClearBytes(plain)

	compressed, err := compressPayload(plain, envelope.Compression())
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(compressed)

	tree, err := enc.Encrypt(compressed)
	if err != nil {
		return fmt.Errorf("failed to encrypt vault tree: %w", err)
	}
	check, err := enc.Encrypt([]byte(keyCheckValue))
	if err != nil {
		return fmt.Errorf("failed to encrypt key check: %w", err)
	}

	kdfParams, err := json.Marshal(envelope.Kdf().Params())
	if err != nil {
		return fmt.Errorf("failed to encode kdf parameters: %w", err)
	}
	customData, err := json.Marshal(db.PublicCustomData())
	if err != nil {
		return fmt.Errorf("failed to encode custom data: %w", err)
	}

	root := db.RootGroup()
	groups := len(root.GroupsRecursive(true))
	entries := len(root.EntriesRecursive(false))

	created, err := root.TimeInfo().CreationTime.MarshalBinary()
	if err != nil {
		return err
	}
	modified, err := time.Now().MarshalBinary()
	if err != nil {
		return err
	}

	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	writeErr := bdb.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, IndexBucket, PrivateBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		puts := []struct {
			key   []byte
			value []byte
		}{
			{ConfigVersion, []byte("1")},
			{ConfigVaultID, []byte(root.UUID().String())},
			{ConfigCreated, created},
			{ConfigModified, modified},
			{ConfigCipher, []byte(envelope.Cipher().String())},
			{ConfigCompression, []byte(envelope.Compression().String())},
			{ConfigKdf, kdfParams},
			{ConfigMasterSeed, envelope.MasterSeed()},
			{ConfigCustomData, customData},
		}
		for _, p := range puts {
			if err := config.Put(p.key, p.value); err != nil {
				return err
			}
		}

		index := tx.Bucket(IndexBucket)
		if err := putCount(index, IndexGroups, groups); err != nil {
			return err
		}
		if err := putCount(index, IndexEntries, entries); err != nil {
			return err
		}

		private := tx.Bucket(PrivateBucket)
		if err := private.Put(PrivateCheck, check); err != nil {
			return err
		}
		return private.Put(PrivateTree, tree)
	})

	closeErr := bdb.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close database: %w", closeErr)
	}
	return nil
}

// Create writes a brand-new container for a database and binds the
// database to it for future saves
func Create(path string, db *core.Database) error {
	db.SetContainerWriter(Writer{})
	return db.SaveToFile(path, true, false)
}

// Open reads a vault container and unlocks it with the given key. The
// file is opened read-only, so a failed unlock can never disturb it.
// Returns ErrNotAVault for files this package did not write and
// ErrWrongKey when the key does not decrypt the container.
func Open(path string, key crypto.DatabaseKey) (*core.Database, error) {
	info, err := readContainer(path)
	if err != nil {
		return nil, err
	}

	kdf, err := crypto.KdfFromParams(info.kdfParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAVault, err)
	}

	db := core.NewDatabase()
	unlocked := false
	defer func() {
		if !unlocked {
			db.Close()
		}
	}()

	envelope := db.Envelope()
	envelope.SetCipher(info.cipher)
	envelope.SetCompression(info.compression)
	envelope.SetKdf(kdf)
	envelope.SetMasterSeed(info.masterSeed)
	if err := envelope.ResolveKey(key); err != nil {
		return nil, err
	}

	encKey, err := envelope.EncryptionKey()
	if err != nil {
		return nil, err
	}
	enc, err := crypto.NewEncryptor(info.cipher, encKey)
	if err != nil {
		return nil, err
	}
	defer enc.Destroy()

	checkPlain, err := enc.Decrypt(info.check)
	if err != nil || string(checkPlain) != keyCheckValue {
		return nil, ErrWrongKey
	}

	compressed, err := enc.Decrypt(info.tree)
	if err != nil {
		return nil, ErrWrongKey
	}
	plain, err := decompressPayload(compressed, info.compression)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress vault tree: %w", err)
	}
	defer crypto.ClearBytes(plain)

	var doc vaultDoc
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode vault tree: %w", err)
	}
	if err := decodeDatabase(doc, db); err != nil {
		return nil, err
	}

	db.SetPublicCustomData(info.customData)
	db.SetFilePath(path)
	db.SetContainerWriter(Writer{})
	unlocked = true
	return db, nil
}

// Summary is what a container reveals without its key
type Summary struct {
	VaultID     string
	Created     time.Time
	Modified    time.Time
	Cipher      string
	Compression string
	Kdf         crypto.KdfParams
	Groups      int
	Entries     int
}

// ReadSummary reads the plaintext container header without unlocking
func ReadSummary(path string) (*Summary, error) {
	info, err := readContainer(path)
	if err != nil {
		return nil, err
	}
	return &Summary{
		VaultID:     info.vaultID,
		Created:     info.created,
		Modified:    info.modified,
		Cipher:      info.cipher.String(),
		Compression: info.compression.String(),
		Kdf:         info.kdfParams,
		Groups:      info.groups,
		Entries:     info.entries,
	}, nil
}

// ReadVaultID returns the stored vault identity without unlocking
func ReadVaultID(path string) (string, error) {
	info, err := readContainer(path)
	if err != nil {
		return "", err
	}
	if info.vaultID == "" {
		return "", fmt.Errorf("%w: missing vault id", ErrNotAVault)
	}
	return info.vaultID, nil
}

type containerInfo struct {
	vaultID     string
	created     time.Time
	modified    time.Time
	cipher      crypto.CipherID
	compression crypto.CompressionAlgorithm
	kdfParams   crypto.KdfParams
	masterSeed  []byte
	customData  map[string]string
	groups      int
	entries     int
	check       []byte
	tree        []byte
}

func readContainer(path string) (*containerInfo, error) {
	bdb, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAVault, err)
	}
	defer bdb.Close()

	info := &containerInfo{}
	err = bdb.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil || config.Get(ConfigVersion) == nil {
			return ErrNotAVault
		}
		info.vaultID = string(config.Get(ConfigVaultID))

		if data := config.Get(ConfigCreated); data != nil {
			if err := info.created.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("invalid created time: %w", err)
			}
		}
		if data := config.Get(ConfigModified); data != nil {
			if err := info.modified.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("invalid modified time: %w", err)
			}
		}

		cipher, err := crypto.CipherFromString(string(config.Get(ConfigCipher)))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotAVault, err)
		}
		info.cipher = cipher
		compression, err := crypto.CompressionFromString(string(config.Get(ConfigCompression)))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotAVault, err)
		}
		info.compression = compression

		if err := json.Unmarshal(config.Get(ConfigKdf), &info.kdfParams); err != nil {
			return fmt.Errorf("%w: invalid kdf parameters", ErrNotAVault)
		}

		seed := config.Get(ConfigMasterSeed)
		if seed == nil {
			return fmt.Errorf("%w: missing master seed", ErrNotAVault)
		}
		// Make a copy since the slice is only valid during the transaction
		info.masterSeed = append([]byte(nil), seed...)

		if data := config.Get(ConfigCustomData); data != nil {
			if err := json.Unmarshal(data, &info.customData); err != nil {
				return fmt.Errorf("invalid custom data: %w", err)
			}
		}

		if index := tx.Bucket(IndexBucket); index != nil {
			info.groups = getCount(index, IndexGroups)
			info.entries = getCount(index, IndexEntries)
		}

		private := tx.Bucket(PrivateBucket)
		if private == nil {
			return ErrNotAVault
		}
		check := private.Get(PrivateCheck)
		tree := private.Get(PrivateTree)
		if check == nil || tree == nil {
			return ErrNotAVault
		}
		info.check = append([]byte(nil), check...)
		info.tree = append([]byte(nil), tree...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Compact rewrites the container into a fresh file, dropping the free
// pages that whole-tree saves leave behind. Works on the sealed
// container, so no key is required.
func Compact(path string) error {
	src, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAVault, err)
	}
	defer src.Close()

	tmpPath := path + ".compact"
	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = src.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	// Atomic replace
	backupPath := path + ".backup"
	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Rename(backupPath, path) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	return nil
}

func putCount(b *bolt.Bucket, key []byte, n int) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(n))
	return b.Put(key, buf)
}

func getCount(b *bolt.Bucket, key []byte) int {
	data := b.Get(key)
	if len(data) != 4 {
		return 0
	}
	return int(binary.BigEndian.Uint32(data))
}
